// internal/app/features/groups/handler_test.go
package groups

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	auditstore "github.com/AbnetS/bidir-group/internal/app/store/audit"
	clientstore "github.com/AbnetS/bidir-group/internal/app/store/clients"
	groupstore "github.com/AbnetS/bidir-group/internal/app/store/groups"
	historystore "github.com/AbnetS/bidir-group/internal/app/store/histories"
	proposalstore "github.com/AbnetS/bidir-group/internal/app/store/proposals"
	stagestore "github.com/AbnetS/bidir-group/internal/app/store/stages"
	taskstore "github.com/AbnetS/bidir-group/internal/app/store/tasks"
	"github.com/AbnetS/bidir-group/internal/app/system/auditlog"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/status"
	"github.com/AbnetS/bidir-group/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestHandler(db *mongo.Database) *Handler {
	groups := groupstore.New(db)
	clients := clientstore.New(db)
	stages := stagestore.New(db)

	ctrl := &lifecycle.Controller{
		Groups:    groups,
		Ledger:    historystore.New(db),
		Stages:    stages,
		Apps:      stages,
		Clients:   clients,
		Proposals: proposalstore.New(db),
		Tasks:     taskstore.New(db),
		Audit:     auditlog.New(auditstore.New(db), zap.NewNop(), "db"),
		Log:       zap.NewNop(),
	}
	return NewHandler(ctrl, groups, clients, authz.New(), zap.NewNop())
}

func TestServeCreateForbiddenForViewer(t *testing.T) {
	h := NewHandler(nil, nil, nil, authz.New(), zap.NewNop())

	req := testutil.NewRequest(t, http.MethodPost, "/groups/create", testutil.ViewerUser(), map[string]any{"name": "G"})
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeBody(t, rec, &body)
	if body.Error.Message != "You Don't have enough permissions to complete this action" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestServeFetchOneInvalidID(t *testing.T) {
	h := NewHandler(nil, nil, nil, authz.New(), zap.NewNop())

	req := testutil.NewRequest(t, http.MethodGet, "/groups/not-an-id", testutil.ViewerUser(), nil)
	req = testutil.WithChiURLParam(req, "id", "not-an-id")
	rec := httptest.NewRecorder()
	h.ServeFetchOne(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServeUpdateStatusRejectsOtherValues(t *testing.T) {
	h := NewHandler(nil, nil, nil, authz.New(), zap.NewNop())

	req := testutil.NewRequest(t, http.MethodPut, "/groups/x/status", testutil.OfficerUser(), map[string]string{"status": "eligible"})
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.ServeUpdateStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeBody(t, rec, &body)
	if body.Error.Message != "Allowed values for status is only loan_paid" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestServeUpdateRejectsMemberChanges(t *testing.T) {
	h := NewHandler(nil, nil, nil, authz.New(), zap.NewNop())

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{"members", map[string]any{"members": []string{primitive.NewObjectID().Hex()}}, "Members can not be updated here. Use the members endpoint."},
		{"leader", map[string]any{"leader": primitive.NewObjectID().Hex()}, "Leader can not be updated here. Use the leader endpoint."},
		{"status", map[string]any{"status": "eligible"}, "Status can not be updated here. Use the status endpoint."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodPut, "/groups/x", testutil.OfficerUser(), tc.body)
			req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
			rec := httptest.NewRecorder()
			h.ServeUpdate(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			testutil.DecodeBody(t, rec, &body)
			if body.Error.Message != tc.want {
				t.Errorf("message = %q, want %q", body.Error.Message, tc.want)
			}
		})
	}
}

func TestGroupEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	router := Routes(h)
	officer := testutil.OfficerUser()

	var created models.Group
	t.Run("create", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/create", officer, map[string]any{
			"name":          "Chemo Farmers",
			"branch":        primitive.NewObjectID().Hex(),
			"no_of_members": 5,
			"total_amount":  25000,
		})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		testutil.DecodeBody(t, rec, &created)
		if created.Status != status.GroupNew || created.LoanCycle != 1 {
			t.Errorf("created = %s cycle %d", created.Status, created.LoanCycle)
		}
	})

	t.Run("fetch one", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/"+created.ID.Hex(), officer, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var got models.Group
		testutil.DecodeBody(t, rec, &got)
		if got.ID != created.ID || got.Name != "Chemo Farmers" {
			t.Errorf("fetched = %+v", got)
		}
	})

	t.Run("fetch missing", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/"+primitive.NewObjectID().Hex(), officer, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("paginate", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/paginate?per_page=10", officer, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var env struct {
			Page    int            `json:"page"`
			HasNext bool           `json:"has_next"`
			Docs    []models.Group `json:"docs"`
		}
		testutil.DecodeBody(t, rec, &env)
		if env.Page != 1 || len(env.Docs) != 1 {
			t.Errorf("envelope = %+v", env)
		}
	})
}
