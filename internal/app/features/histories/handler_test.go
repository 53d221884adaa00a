// internal/app/features/histories/handler_test.go
package histories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/store/groups"
	"github.com/AbnetS/bidir-group/internal/app/store/histories"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
	"github.com/AbnetS/bidir-group/internal/testutil"
)

func TestServeSearchRequiresGroup(t *testing.T) {
	h := NewHandler(nil, nil, authz.New(), zap.NewNop())

	req := testutil.NewRequest(t, http.MethodGet, "/histories/search", testutil.OfficerUser(), nil)
	rec := httptest.NewRecorder()
	h.ServeSearch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeBody(t, rec, &body)
	if body.Error.Message != "Group Reference Missing in query" {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestHistorySearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fx := testutil.NewFixtures(t, db)
	group := fx.CreateGroup(ctx, "Chemo Farmers", []primitive.ObjectID{primitive.NewObjectID()})
	screeningRef := primitive.NewObjectID()
	fx.CreateHistory(ctx, group, screeningRef)

	h := NewHandler(historystore.New(db), groupstore.New(db), authz.New(), zap.NewNop())
	router := Routes(h)

	get := func(t *testing.T, target string) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.NewRequest(t, http.MethodGet, target, testutil.OfficerUser(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("unknown group", func(t *testing.T) {
		rec := get(t, "/search?group="+primitive.NewObjectID().Hex())
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("full ledger", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex())
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			CycleNumber int `json:"cycle_number"`
			Cycles      []struct {
				CycleNumber int `json:"cycle_number"`
			} `json:"cycles"`
		}
		testutil.DecodeBody(t, rec, &body)
		if body.CycleNumber != 1 || len(body.Cycles) != 1 {
			t.Errorf("ledger = %+v", body)
		}
	})

	t.Run("one cycle", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex()+"&loanCycle=1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var cycle struct {
			CycleNumber int    `json:"cycle_number"`
			Screening   string `json:"screening"`
		}
		testutil.DecodeBody(t, rec, &cycle)
		if cycle.CycleNumber != 1 || cycle.Screening != screeningRef.Hex() {
			t.Errorf("cycle = %+v, want screening %s", cycle, screeningRef.Hex())
		}
	})

	t.Run("cycle's screening ref", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex()+"&loanCycle=1&application=screening")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var ref string
		testutil.DecodeBody(t, rec, &ref)
		if ref != screeningRef.Hex() {
			t.Errorf("ref = %q, want %q", ref, screeningRef.Hex())
		}
	})

	t.Run("absent ref yields empty object", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex()+"&loanCycle=1&application=loan")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]any
		testutil.DecodeBody(t, rec, &body)
		if len(body) != 0 {
			t.Errorf("body = %v, want empty object", body)
		}
	})

	t.Run("unknown cycle yields empty object", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex()+"&loanCycle=9")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]any
		testutil.DecodeBody(t, rec, &body)
		if len(body) != 0 {
			t.Errorf("body = %v, want empty object", body)
		}
	})

	t.Run("bad application value", func(t *testing.T) {
		rec := get(t, "/search?group="+group.ID.Hex()+"&loanCycle=1&application=proposal")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHistoryPaginate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fx := testutil.NewFixtures(t, db)
	first := fx.CreateGroup(ctx, "Chemo Farmers", []primitive.ObjectID{primitive.NewObjectID()})
	second := fx.CreateGroup(ctx, "Borena Farmers", []primitive.ObjectID{primitive.NewObjectID()})
	fx.CreateHistory(ctx, first, primitive.NewObjectID())
	fx.CreateHistory(ctx, second, primitive.NewObjectID())

	h := NewHandler(historystore.New(db), groupstore.New(db), authz.New(), zap.NewNop())
	router := Routes(h)

	req := testutil.NewRequest(t, http.MethodGet, "/paginate?per_page=1", testutil.OfficerUser(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Page    int              `json:"page"`
		PerPage int              `json:"per_page"`
		HasNext bool             `json:"has_next"`
		Docs    []map[string]any `json:"docs"`
	}
	testutil.DecodeBody(t, rec, &body)
	if body.Page != 1 || body.PerPage != 1 || !body.HasNext || len(body.Docs) != 1 {
		t.Errorf("envelope = %+v", body)
	}

	branchOnly := testutil.NewRequest(t, http.MethodGet, "/paginate?branch="+first.Branch.Hex(), testutil.OfficerUser(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, branchOnly)
	testutil.DecodeBody(t, rec, &body)
	if body.HasNext || len(body.Docs) != 1 {
		t.Errorf("branch filter envelope = %+v", body)
	}
}
