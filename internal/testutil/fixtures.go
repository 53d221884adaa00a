// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateGroup inserts a group with the given name and member count.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, members []primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.Group{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Branch:       primitive.NewObjectID(),
		Members:      members,
		MemberCount:  len(members),
		Status:       status.GroupNew,
		LoanCycle:    1,
		TotalAmount:  money.FromFloat(10000),
		DateCreated:  now,
		LastModified: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateClient inserts a client with the given status.
func (f *Fixtures) CreateClient(ctx context.Context, firstName, clientStatus string) models.Client {
	f.t.Helper()

	c := models.Client{
		ID:           primitive.NewObjectID(),
		FirstName:    firstName,
		LastName:     "Tester",
		Branch:       primitive.NewObjectID(),
		Status:       clientStatus,
		LastModified: time.Now().UTC(),
	}
	if _, err := f.db.Collection("clients").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test client: %v", err)
	}
	return c
}

// CreateScreening inserts a member-level screening document with the given
// status, as the screening service would have written it.
func (f *Fixtures) CreateScreening(ctx context.Context, client primitive.ObjectID, screeningStatus string) primitive.ObjectID {
	f.t.Helper()

	id := primitive.NewObjectID()
	doc := map[string]any{
		"_id":           id,
		"client":        client,
		"status":        screeningStatus,
		"date_created":  time.Now().UTC(),
		"last_modified": time.Now().UTC(),
	}
	if _, err := f.db.Collection("screenings").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test screening: %v", err)
	}
	return id
}

// CreateHistory inserts a cycle ledger for the group with one open cycle.
func (f *Fixtures) CreateHistory(ctx context.Context, group models.Group, screeningRef primitive.ObjectID) models.GroupHistory {
	f.t.Helper()

	now := time.Now().UTC()
	h := models.GroupHistory{
		ID:          primitive.NewObjectID(),
		Group:       group.ID,
		Branch:      group.Branch,
		CycleNumber: 1,
		Cycles: []models.CycleRecord{{
			CycleNumber:  1,
			Screening:    screeningRef,
			TotalAmount:  group.TotalAmount,
			LastModified: now,
		}},
		DateCreated:  now,
		LastModified: now,
	}
	if _, err := f.db.Collection("group_histories").InsertOne(ctx, h); err != nil {
		f.t.Fatalf("failed to create test history: %v", err)
	}
	return h
}
