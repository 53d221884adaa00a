// internal/app/features/acats/handler.go
package acats

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

// NewHandler constructs the group-ACATs feature handler.
func NewHandler(ctrl *lifecycle.Controller, services stagesvc.Registry, oracle *authz.Oracle, logger *zap.Logger) *Handler {
	return &Handler{Ctrl: ctrl, Services: services, Oracle: oracle, Log: logger}
}

type createACATRequest struct {
	Group string `json:"group"`
}

// ServeCreate handles POST /acats/create: it opens the ACAT stage for the
// group's active cycle with an empty member set.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionCreate)
	if !ok {
		return
	}

	var req createACATRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if req.Group == "" {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group Reference is Empty"))
		return
	}
	group, err := primitive.ObjectIDFromHex(req.Group)
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group Reference is Empty"))
		return
	}

	acat, err := h.Ctrl.InitializeACAT(r.Context(), user.ID, group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, acat)
}

type memberACATRequest struct {
	Client string   `json:"client"`
	Crops  []string `json:"crop_acats"`
}

// ServeInitializeMember handles POST /acats/initialize/{groupId}: it
// creates one member's appraisal upstream and folds it into the group ACAT.
func (h *Handler) ServeInitializeMember(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionCreate)
	if !ok {
		return
	}
	group, err := shared.PathID(r, "groupId")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	var req memberACATRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	client, err := primitive.ObjectIDFromHex(req.Client)
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Client Reference is Empty"))
		return
	}
	crops := make([]primitive.ObjectID, 0, len(req.Crops))
	for _, c := range req.Crops {
		cropID, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			apierrors.WriteError(w, h.Log, apperr.Newf(apperr.Validation, "invalid crop acat id %q", c))
			return
		}
		crops = append(crops, cropID)
	}

	acat, err := h.Ctrl.InitializeMemberACAT(r.Context(), user.ID, group,
		stagesvc.MemberACATRequest{Client: client, Crops: crops}, h.Services.ACATFor(r))
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, acat)
}

// ServeFetchByGroup handles GET /acats/{groupId}.
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

	acat, err := h.Ctrl.Stages.LatestByGroup(r.Context(), status.StageACAT, group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if acat == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group ACAT Does Not Exist"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, acat)
}

// ServeSubmit handles PUT /acats/{groupId}/submit.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.SubmitStage)
}

// ServeApprove handles PUT /acats/{groupId}/approve.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ctrl.ApproveStage)
}

// ServeUpdateStatus handles PUT /acats/{groupId}/status.
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

	acat, err := op(r.Context(), user.ID, group, status.StageACAT)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, acat)
}
