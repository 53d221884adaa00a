// internal/app/store/histories/historystore.go

// Package historystore owns the group_histories collection: the append-only
// per-group ledger of loan cycles.
package historystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/paging"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_histories")}
}

// CreateForGroup starts a group's ledger with its first cycle record, the
// first screening already attached.
func (s *Store) CreateForGroup(ctx context.Context, group *models.Group, screeningRef primitive.ObjectID, total money.Amount, starter primitive.ObjectID) (*models.GroupHistory, error) {
	now := time.Now().UTC()
	h := &models.GroupHistory{
		ID:          primitive.NewObjectID(),
		Group:       group.ID,
		Branch:      group.Branch,
		CycleNumber: 1,
		Cycles: []models.CycleRecord{{
			CycleNumber:  1,
			Screening:    screeningRef,
			TotalAmount:  total,
			StartedBy:    starter,
			LastEditBy:   starter,
			LastModified: now,
		}},
		DateCreated:  now,
		LastModified: now,
	}
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Store) ByGroup(ctx context.Context, group primitive.ObjectID) (*models.GroupHistory, error) {
	var h models.GroupHistory
	err := s.c.FindOne(ctx, bson.M{"group": group}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// AttachStage sets the active cycle's stage ref. The ref for a stage is set
// exactly once per cycle; a second attach is a conflict.
func (s *Store) AttachStage(ctx context.Context, group primitive.ObjectID, stage status.Stage, ref, editor primitive.ObjectID) error {
	h, err := s.ByGroup(ctx, group)
	if err != nil {
		return err
	}
	if h == nil || h.Active() == nil {
		return apperr.New(apperr.NotFound, "Group Has No Loan History")
	}
	if h.Active().HasStage(string(stage)) {
		return apperr.Newf(apperr.Conflict, "Loan Cycle (%d) already has a %s", h.CycleNumber, stage.Label())
	}

	field := fmt.Sprintf("cycles.$.%s", stage)
	res, err := s.c.UpdateOne(ctx, bson.M{
		"group": group,
		"cycles": bson.M{"$elemMatch": bson.M{
			"cycle_number": h.CycleNumber,
			string(stage):  bson.M{"$exists": false},
		}},
	}, bson.M{"$set": bson.M{
		field:                    ref,
		"cycles.$.last_edit_by":  editor,
		"cycles.$.last_modified": time.Now().UTC(),
		"last_modified":          time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.Newf(apperr.Conflict, "Loan Cycle (%d) already has a %s", h.CycleNumber, stage.Label())
	}
	return nil
}

// AdvanceCycle appends the next cycle's record with its screening ref
// pre-filled and moves the history's cycle number forward.
func (s *Store) AdvanceCycle(ctx context.Context, group primitive.ObjectID, screeningRef primitive.ObjectID, total money.Amount, starter primitive.ObjectID) (*models.GroupHistory, error) {
	h, err := s.ByGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.New(apperr.NotFound, "Group Has No Loan History")
	}

	now := time.Now().UTC()
	next := h.CycleNumber + 1
	record := models.CycleRecord{
		CycleNumber:  next,
		Screening:    screeningRef,
		TotalAmount:  total,
		StartedBy:    starter,
		LastEditBy:   starter,
		LastModified: now,
	}
	err = s.c.FindOneAndUpdate(ctx, bson.M{"_id": h.ID}, bson.M{
		"$set":  bson.M{"cycle_number": next, "last_modified": now},
		"$push": bson.M{"cycles": record},
	}).Err()
	if err != nil {
		return nil, err
	}

	h.CycleNumber = next
	h.Cycles = append(h.Cycles, record)
	h.LastModified = now
	return h, nil
}

// RecordAmount patches one total on the matching cycle record in place.
func (s *Store) RecordAmount(ctx context.Context, group primitive.ObjectID, cycleNumber int, field lifecycle.AmountField, value money.Amount) error {
	if field != lifecycle.AmountGranted && field != lifecycle.AmountPaid {
		return fmt.Errorf("historystore: unknown amount field %q", field)
	}

	res, err := s.c.UpdateOne(ctx, bson.M{
		"group":  group,
		"cycles": bson.M{"$elemMatch": bson.M{"cycle_number": cycleNumber}},
	}, bson.M{"$set": bson.M{
		fmt.Sprintf("cycles.$.%s", field): value,
		"cycles.$.last_modified":          time.Now().UTC(),
		"last_modified":                   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "Group Has No Loan History")
	}
	return nil
}

// List returns a page of ledgers plus a has-next indicator, newest first.
// A zero branch matches every group.
func (s *Store) List(ctx context.Context, branch primitive.ObjectID, p paging.Page) ([]models.GroupHistory, bool, error) {
	filter := bson.M{}
	if !branch.IsZero() {
		filter["branch"] = branch
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var histories []models.GroupHistory
	if err := cur.All(ctx, &histories); err != nil {
		return nil, false, err
	}
	histories, hasNext := paging.Trim(histories, p)
	return histories, hasNext, nil
}

// EnsureIndexes creates the unique group index the 1:1 ownership relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "group", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
