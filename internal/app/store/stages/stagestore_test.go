// internal/app/store/stages/stagestore_test.go
package stagestore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/status"
	"github.com/AbnetS/bidir-group/internal/testutil"
)

func TestCreateAndLatestByGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group := primitive.NewObjectID()
	creator := primitive.NewObjectID()

	first, err := store.Create(ctx, status.StageScreening, group, creator, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Status != "new" || first.Members == nil || len(first.Members) != 0 {
		t.Fatalf("first aggregate = %+v", first)
	}

	// Mongo stores timestamps at millisecond precision; keep the second
	// insert clearly newer so the sort is unambiguous.
	time.Sleep(5 * time.Millisecond)

	entry := models.MemberEntry{
		Client: primitive.NewObjectID(),
		Ref:    primitive.NewObjectID(),
		Status: status.ScreeningNew,
	}
	second, err := store.Create(ctx, status.StageScreening, group, creator, []models.MemberEntry{entry})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	latest, err := store.LatestByGroup(ctx, status.StageScreening, group)
	if err != nil {
		t.Fatalf("LatestByGroup: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("latest = %+v, want %s", latest, second.ID.Hex())
	}
	if len(latest.Members) != 1 || latest.Members[0].Client != entry.Client {
		t.Errorf("latest members = %+v", latest.Members)
	}

	none, err := store.LatestByGroup(ctx, status.StageScreening, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("LatestByGroup unknown group: %v", err)
	}
	if none != nil {
		t.Errorf("unknown group returned %+v, want nil", none)
	}

	all, err := store.ScreeningsByGroup(ctx, group)
	if err != nil {
		t.Fatalf("ScreeningsByGroup: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("ScreeningsByGroup order = %+v", all)
	}
}

func TestSetMembersAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	group := primitive.NewObjectID()

	agg, err := store.Create(ctx, status.StageLoan, group, primitive.NewObjectID(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry := models.MemberEntry{
		Client: primitive.NewObjectID(),
		Ref:    primitive.NewObjectID(),
		Status: status.LoanInProgress,
	}
	updated, err := store.SetMembers(ctx, status.StageLoan, agg.ID, []models.MemberEntry{entry}, status.LoanInProgress)
	if err != nil {
		t.Fatalf("SetMembers: %v", err)
	}
	if updated.Status != status.LoanInProgress || len(updated.Members) != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	closed, err := store.SetStatus(ctx, status.StageLoan, agg.ID, status.LoanAccepted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if closed.Status != status.LoanAccepted || len(closed.Members) != 1 {
		t.Fatalf("closed = %+v", closed)
	}

	missing, err := store.SetStatus(ctx, status.StageLoan, primitive.NewObjectID(), status.LoanAccepted)
	if err != nil {
		t.Fatalf("SetStatus missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing aggregate returned %+v, want nil", missing)
	}
}

func TestStatusesInRefOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	loans := db.Collection("loans")

	refs := make([]primitive.ObjectID, 3)
	want := []string{"accepted", "new", "submitted"}
	for i, st := range want {
		refs[i] = primitive.NewObjectID()
		_, err := loans.InsertOne(ctx, bson.M{
			"_id":          refs[i],
			"client":       primitive.NewObjectID(),
			"status":       st,
			"date_created": time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed loan: %v", err)
		}
	}

	// Reverse the refs; statuses must come back in the reversed order too.
	reversed := []primitive.ObjectID{refs[2], refs[1], refs[0]}
	got, err := store.Statuses(ctx, status.StageLoan, reversed)
	if err != nil {
		t.Fatalf("Statuses: %v", err)
	}
	if len(got) != 3 || got[0] != "submitted" || got[1] != "new" || got[2] != "accepted" {
		t.Errorf("statuses = %v", got)
	}

	if _, err := store.Statuses(ctx, status.StageLoan, append(refs, primitive.NewObjectID())); err == nil {
		t.Error("unknown ref must error")
	}
}

func TestLatestByClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	screenings := db.Collection("screenings")
	client := primitive.NewObjectID()

	older := primitive.NewObjectID()
	newer := primitive.NewObjectID()
	now := time.Now().UTC()
	for _, doc := range []bson.M{
		{"_id": older, "client": client, "status": "approved", "date_created": now.Add(-time.Hour)},
		{"_id": newer, "client": client, "status": "new", "date_created": now},
	} {
		if _, err := screenings.InsertOne(ctx, doc); err != nil {
			t.Fatalf("seed screening: %v", err)
		}
	}

	app, err := store.LatestByClient(ctx, status.StageScreening, client)
	if err != nil {
		t.Fatalf("LatestByClient: %v", err)
	}
	if app == nil || app.Ref != newer || app.Status != "new" {
		t.Fatalf("latest = %+v, want ref %s", app, newer.Hex())
	}

	none, err := store.LatestByClient(ctx, status.StageScreening, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("LatestByClient unknown: %v", err)
	}
	if none != nil {
		t.Errorf("unknown client returned %+v, want nil", none)
	}
}

func TestSetForGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	acats := db.Collection("client_acats")
	ref := primitive.NewObjectID()
	if _, err := acats.InsertOne(ctx, bson.M{
		"_id":          ref,
		"client":       primitive.NewObjectID(),
		"status":       "new",
		"for_group":    false,
		"date_created": time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed acat: %v", err)
	}

	if err := store.SetForGroup(ctx, status.StageACAT, ref, true); err != nil {
		t.Fatalf("SetForGroup: %v", err)
	}

	var doc struct {
		ForGroup bool `bson:"for_group"`
	}
	if err := acats.FindOne(ctx, bson.M{"_id": ref}).Decode(&doc); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !doc.ForGroup {
		t.Error("for_group not set")
	}
}
