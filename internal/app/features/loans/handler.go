// internal/app/features/loans/handler.go
package loans

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
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Handler struct {
	Ctrl     *lifecycle.Controller
	Services stagesvc.Registry
	Oracle   *authz.Oracle
	Log      *zap.Logger
}

// NewHandler constructs the group-loans feature handler.
func NewHandler(ctrl *lifecycle.Controller, services stagesvc.Registry, oracle *authz.Oracle, logger *zap.Logger) *Handler {
	return &Handler{Ctrl: ctrl, Services: services, Oracle: oracle, Log: logger}
}

// ServeInitialize handles POST /loans/initialize/{groupId}: it opens the
// loan stage and creates one loan application per member upstream.
func (h *Handler) ServeInitialize(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionCreate)
	if !ok {
		return
	}
	group, err := shared.PathID(r, "groupId")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	loan, err := h.Ctrl.InitializeLoan(r.Context(), user.ID, group, h.Services.LoanFor(r))
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, loan)
}

// ServeFetchByGroup handles GET /loans/{groupId}.
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

	loan, err := h.Ctrl.Stages.LatestByGroup(r.Context(), status.StageLoan, group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if loan == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Loan Does Not Exist"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, loan)
}

// ServeSubmit handles PUT /loans/{groupId}/submit.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.SubmitStage)
}

// ServeApprove handles PUT /loans/{groupId}/approve.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.ApproveStage)
}

// ServeUpdateStatus handles PUT /loans/{groupId}/status.
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

	loan, err := op(r.Context(), user.ID, group, status.StageLoan)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, loan)
}
