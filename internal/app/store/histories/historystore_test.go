// internal/app/store/histories/historystore_test.go
package historystore

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/paging"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
	"github.com/AbnetS/bidir-group/internal/testutil"
)

func seedLedger(t *testing.T, store *Store) (*models.Group, *models.GroupHistory) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := &models.Group{
		ID:     primitive.NewObjectID(),
		Name:   "Chemo Farmers",
		Branch: primitive.NewObjectID(),
	}
	h, err := store.CreateForGroup(ctx, group, primitive.NewObjectID(), money.FromFloat(10000), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("CreateForGroup: %v", err)
	}
	return group, h
}

func TestCreateForGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group, _ := seedLedger(t, store)

	h, err := store.ByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ByGroup: %v", err)
	}
	if h == nil || h.CycleNumber != 1 || len(h.Cycles) != 1 {
		t.Fatalf("ledger = %+v", h)
	}
	cycle := h.Active()
	if cycle == nil || cycle.Screening.IsZero() {
		t.Error("cycle 1 must carry the screening ref")
	}
	if !cycle.TotalAmount.Equal(money.FromFloat(10000)) {
		t.Errorf("cycle total = %s, want 10000", cycle.TotalAmount)
	}
}

func TestAttachStageSetsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group, _ := seedLedger(t, store)
	editor := primitive.NewObjectID()

	loanRef := primitive.NewObjectID()
	if err := store.AttachStage(ctx, group.ID, status.StageLoan, loanRef, editor); err != nil {
		t.Fatalf("AttachStage: %v", err)
	}

	h, _ := store.ByGroup(ctx, group.ID)
	if h.Active().Loan != loanRef {
		t.Errorf("loan ref = %s, want %s", h.Active().Loan.Hex(), loanRef.Hex())
	}

	err := store.AttachStage(ctx, group.ID, status.StageLoan, primitive.NewObjectID(), editor)
	if apperr.KindOf(err) != apperr.Conflict {
		t.Errorf("second attach = %v, want a conflict", err)
	}
	h, _ = store.ByGroup(ctx, group.ID)
	if h.Active().Loan != loanRef {
		t.Error("the first ref must survive a conflicting attach")
	}
}

func TestAdvanceCycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group, _ := seedLedger(t, store)

	nextScreening := primitive.NewObjectID()
	h, err := store.AdvanceCycle(ctx, group.ID, nextScreening, money.FromFloat(20000), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("AdvanceCycle: %v", err)
	}
	if h.CycleNumber != 2 || len(h.Cycles) != 2 {
		t.Fatalf("after advance: cycle=%d records=%d", h.CycleNumber, len(h.Cycles))
	}
	if h.Active().Screening != nextScreening {
		t.Error("cycle 2 must be pre-filled with its screening ref")
	}

	// The stored document agrees with the returned one.
	stored, _ := store.ByGroup(ctx, group.ID)
	if stored.CycleNumber != 2 || len(stored.Cycles) != 2 {
		t.Errorf("stored ledger: cycle=%d records=%d", stored.CycleNumber, len(stored.Cycles))
	}
}

func TestRecordAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group, _ := seedLedger(t, store)

	if err := store.RecordAmount(ctx, group.ID, 1, lifecycle.AmountGranted, money.FromFloat(8000)); err != nil {
		t.Fatalf("RecordAmount: %v", err)
	}
	h, _ := store.ByGroup(ctx, group.ID)
	if !h.Active().TotalGranted.Equal(money.FromFloat(8000)) {
		t.Errorf("granted = %s, want 8000", h.Active().TotalGranted)
	}

	err := store.RecordAmount(ctx, group.ID, 9, lifecycle.AmountPaid, money.FromFloat(1))
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("missing cycle = %v, want not found", err)
	}

	if err := store.RecordAmount(ctx, group.ID, 1, "total_amount", money.FromFloat(1)); err == nil {
		t.Error("unknown field must be rejected")
	}
}

func TestListByBranch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group, _ := seedLedger(t, store)
	seedLedger(t, store)

	page := paging.Page{Page: 1, PerPage: 10}

	histories, hasNext, err := store.List(ctx, group.Branch, page)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(histories) != 1 || histories[0].Group != group.ID {
		t.Errorf("List(branch) = %d ledgers, want just the branch's", len(histories))
	}
	if hasNext {
		t.Error("one ledger must not report a next page")
	}

	all, _, err := store.List(ctx, primitive.NilObjectID, page)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(all) = %d, want 2", len(all))
	}

	first, hasNext, err := store.List(ctx, primitive.NilObjectID, paging.Page{Page: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if len(first) != 1 || !hasNext {
		t.Errorf("page 1 = %d ledgers, hasNext %v; want 1, true", len(first), hasNext)
	}
}
