// internal/app/features/screenings/handler.go
package screenings

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/clients/stagesvc"
	apierrors "github.com/AbnetS/bidir-group/internal/app/features/errors"
	"github.com/AbnetS/bidir-group/internal/app/features/shared"
	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Handler struct {
	Ctrl     *lifecycle.Controller
	Services stagesvc.Registry
	Oracle   *authz.Oracle
	Log      *zap.Logger
}

// NewHandler constructs the group-screenings feature handler.
func NewHandler(ctrl *lifecycle.Controller, services stagesvc.Registry, oracle *authz.Oracle, logger *zap.Logger) *Handler {
	return &Handler{Ctrl: ctrl, Services: services, Oracle: oracle, Log: logger}
}

type startCycleRequest struct {
	Group       string       `json:"group"`
	TotalAmount money.Amount `json:"total_amount"`
}

// ServeStartCycle handles POST /screenings/create: it begins the group's
// next loan cycle, seeding fresh member screenings from the previous
// cycle's.
func (h *Handler) ServeStartCycle(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionCreate)
	if !ok {
		return
	}

	var req startCycleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if req.Group == "" {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group reference is empty"))
		return
	}
	group, err := primitive.ObjectIDFromHex(req.Group)
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group reference is empty"))
		return
	}

	screening, err := h.Ctrl.StartScreeningCycle(r.Context(), user.ID, group, req.TotalAmount, h.Services.ScreeningFor(r))
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, screening)
}

// ServeFetchByGroup handles GET /screenings/{groupId}: the group's newest
// screening aggregate.
func (h *Handler) ServeFetchByGroup(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}
	group, err := shared.PathID(r, "groupId")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	screening, err := h.Ctrl.Stages.LatestByGroup(r.Context(), status.StageScreening, group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if screening == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Screening Does Not Exist"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, screening)
}

// ServeSubmit handles PUT /screenings/{groupId}/submit.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.SubmitStage)
}

// ServeApprove handles PUT /screenings/{groupId}/approve.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.ApproveStage)
}

// ServeUpdateStatus handles PUT /screenings/{groupId}/status.
func (h *Handler) ServeUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.RefreshStageStatus)
}

type stageOp func(ctx context.Context, actor, group primitive.ObjectID, stage status.Stage) (*lifecycle.StageAggregate, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op stageOp) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionUpdate)
	if !ok {
		return
	}
	group, err := shared.PathID(r, "groupId")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	screening, err := op(r.Context(), user.ID, group, status.StageScreening)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, screening)
}
