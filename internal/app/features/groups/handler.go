// internal/app/features/groups/handler.go
package groups

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apierrors "github.com/AbnetS/bidir-group/internal/app/features/errors"
	"github.com/AbnetS/bidir-group/internal/app/features/shared"
	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	"github.com/AbnetS/bidir-group/internal/app/store/clients"
	"github.com/AbnetS/bidir-group/internal/app/store/groups"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/app/system/paging"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Handler struct {
	Ctrl    *lifecycle.Controller
	Groups  *groupstore.Store
	Clients *clientstore.Store
	Oracle  *authz.Oracle
	Log     *zap.Logger
}

// NewHandler constructs the groups feature handler.
func NewHandler(ctrl *lifecycle.Controller, groups *groupstore.Store, clients *clientstore.Store, oracle *authz.Oracle, logger *zap.Logger) *Handler {
	return &Handler{Ctrl: ctrl, Groups: groups, Clients: clients, Oracle: oracle, Log: logger}
}

type createGroupRequest struct {
	Name        string       `json:"name"`
	Branch      string       `json:"branch"`
	MemberCount int          `json:"no_of_members"`
	TotalAmount money.Amount `json:"total_amount"`
}

// ServeCreate handles POST /groups/create.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionCreate)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	branch, err := primitive.ObjectIDFromHex(req.Branch)
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Branch is Empty."))
		return
	}

	group, err := h.Ctrl.CreateGroup(r.Context(), user.ID, lifecycle.CreateGroupParams{
		Name:        req.Name,
		Branch:      branch,
		MemberCount: req.MemberCount,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusCreated, group)
}

// ServeFetchOne handles GET /groups/{id}.
func (h *Handler) ServeFetchOne(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	group, err := h.Groups.Get(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if group == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Does Not Exist"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, group)
}

// ServeList handles GET /groups/paginate.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}

	page := paging.Parse(r)
	filter := groupstore.ListFilter{Name: r.URL.Query().Get("name")}
	if b := r.URL.Query().Get("branch"); b != "" {
		branch, err := primitive.ObjectIDFromHex(b)
		if err != nil {
			apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "invalid branch"))
			return
		}
		filter.Branch = branch
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = status.Group(s)
	}

	list, hasNext, err := h.Groups.List(r.Context(), filter, page)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, paging.Wrap(list, page, hasNext))
}

type updateGroupRequest struct {
	Name        *string       `json:"name"`
	MemberCount *int          `json:"no_of_members"`
	TotalAmount *money.Amount `json:"total_amount"`

	// These travel through their own endpoints.
	Members json.RawMessage `json:"members"`
	Leader  json.RawMessage `json:"leader"`
	Status  json.RawMessage `json:"status"`
}

// ServeUpdate handles PUT /groups/{id}, the generic detail update. Member,
// leader, and status changes are rejected here and directed to their own
// endpoints.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionUpdate)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	var req updateGroupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	switch {
	case len(req.Members) != 0:
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Members can not be updated here. Use the members endpoint."))
		return
	case len(req.Leader) != 0:
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Leader can not be updated here. Use the leader endpoint."))
		return
	case len(req.Status) != 0:
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Status can not be updated here. Use the status endpoint."))
		return
	}

	group, err := h.Ctrl.UpdateGroup(r.Context(), user.ID, id, lifecycle.UpdateGroupParams{
		Name:        req.Name,
		MemberCount: req.MemberCount,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, group)
}

type membersRequest struct {
	Members []string `json:"members"`
}

// ServeAddMembers handles PUT /groups/{id}/members.
func (h *Handler) ServeAddMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionUpdate)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	var req membersRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	members := make([]primitive.ObjectID, 0, len(req.Members))
	for _, m := range req.Members {
		memberID, err := primitive.ObjectIDFromHex(m)
		if err != nil {
			apierrors.WriteError(w, h.Log, apperr.Newf(apperr.Validation, "invalid member id %q", m))
			return
		}
		members = append(members, memberID)
	}

	group, err := h.Ctrl.AddMembers(r.Context(), user.ID, id, members)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, group)
}

type leaderRequest struct {
	Leader string `json:"leader"`
}

// ServeAddLeader handles PUT /groups/{id}/leader.
func (h *Handler) ServeAddLeader(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionUpdate)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	var req leaderRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	leader, err := primitive.ObjectIDFromHex(req.Leader)
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "invalid leader id"))
		return
	}

	group, err := h.Ctrl.AddLeader(r.Context(), user.ID, id, leader)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, group)
}

type statusRequest struct {
	Status string `json:"status,omitempty"`
}

// ServeUpdateStatus handles PUT /groups/{id}/status. With a status in the
// body it is the explicit loan_paid override; with an empty body it
// recomputes the group's payment status from its members.
func (h *Handler) ServeUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Caller(w, r, h.Oracle, authz.ActionUpdate)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	var req statusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	if req.Status != "" {
		if req.Status != string(status.GroupLoanPaid) {
			apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Allowed values for status is only loan_paid"))
			return
		}
		group, err := h.Ctrl.CloseLoanPayment(r.Context(), user.ID, id)
		if err != nil {
			apierrors.WriteError(w, h.Log, err)
			return
		}
		apierrors.WriteJSON(w, http.StatusOK, group)
		return
	}

	group, err := h.Ctrl.RefreshPaymentStatus(r.Context(), user.ID, id)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, group)
}

// ServeMembers handles GET /groups/{id}/members, returning the member
// client records.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}
	id, err := shared.PathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	group, err := h.Groups.Get(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if group == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Does Not Exist"))
		return
	}

	members, err := h.Clients.GetMany(r.Context(), group.Members)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, members)
}
