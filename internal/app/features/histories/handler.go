// internal/app/features/histories/handler.go
package histories

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apierrors "github.com/AbnetS/bidir-group/internal/app/features/errors"
	"github.com/AbnetS/bidir-group/internal/app/features/shared"
	"github.com/AbnetS/bidir-group/internal/app/store/groups"
	"github.com/AbnetS/bidir-group/internal/app/store/histories"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/app/system/paging"
)

type Handler struct {
	Histories *historystore.Store
	Groups    *groupstore.Store
	Oracle    *authz.Oracle
	Log       *zap.Logger
}

// NewHandler constructs the group-history feature handler.
func NewHandler(histories *historystore.Store, groups *groupstore.Store, oracle *authz.Oracle, logger *zap.Logger) *Handler {
	return &Handler{Histories: histories, Groups: groups, Oracle: oracle, Log: logger}
}

// ServeFetchByGroup handles GET /histories/{groupId}: the group's full
// cycle ledger.
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

	history, err := h.Histories.ByGroup(r.Context(), group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if history == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Has No Loan History"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, history)
}

// ServeActiveCycle handles GET /histories/{groupId}/active: just the
// current cycle's record.
func (h *Handler) ServeActiveCycle(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}
	group, err := shared.PathID(r, "groupId")
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}

	history, err := h.Histories.ByGroup(r.Context(), group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if history == nil || history.Active() == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Has No Loan History"))
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, history.Active())
}

// ServeSearch handles GET /histories/search?group=&loanCycle=&application=.
// With only a group it returns the full ledger; loanCycle narrows to one
// cycle record; application narrows further to that cycle's screening, loan,
// or acat ref. A cycle or ref the ledger does not carry yields an empty
// object.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("group") == "" {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group Reference Missing in query"))
		return
	}
	group, err := primitive.ObjectIDFromHex(q.Get("group"))
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Group Reference Missing in query"))
		return
	}

	if g, err := h.Groups.Get(r.Context(), group); err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	} else if g == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group does not exist"))
		return
	}

	history, err := h.Histories.ByGroup(r.Context(), group)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	if history == nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.NotFound, "Group Loan Cycle History Not Found"))
		return
	}

	if q.Get("loanCycle") == "" {
		apierrors.WriteJSON(w, http.StatusOK, history)
		return
	}
	num, err := strconv.Atoi(q.Get("loanCycle"))
	if err != nil {
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "invalid loanCycle"))
		return
	}
	cycle := history.Cycle(num)
	if cycle == nil {
		apierrors.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}

	var ref primitive.ObjectID
	switch q.Get("application") {
	case "":
		apierrors.WriteJSON(w, http.StatusOK, cycle)
		return
	case "screening":
		ref = cycle.Screening
	case "loan":
		ref = cycle.Loan
	case "acat":
		ref = cycle.ACAT
	default:
		apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "Allowed values for application are screening, loan and acat"))
		return
	}
	if ref.IsZero() {
		apierrors.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, ref)
}

// ServeList handles GET /histories/paginate?branch=...: ledgers newest
// first, in the shared list envelope.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, ok := shared.Caller(w, r, h.Oracle, authz.ActionView)
	if !ok {
		return
	}

	branch := primitive.NilObjectID
	if b := r.URL.Query().Get("branch"); b != "" {
		parsed, err := primitive.ObjectIDFromHex(b)
		if err != nil {
			apierrors.WriteError(w, h.Log, apperr.New(apperr.Validation, "invalid branch"))
			return
		}
		branch = parsed
	}

	page := paging.Parse(r)
	histories, hasNext, err := h.Histories.List(r.Context(), branch, page)
	if err != nil {
		apierrors.WriteError(w, h.Log, err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, paging.Wrap(histories, page, hasNext))
}
