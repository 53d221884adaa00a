// internal/app/store/stages/stagestore.go

// Package stagestore reads and writes the three stage-aggregate collections
// (group_screenings, group_loans, group_acats) behind one
// stage-parameterized surface, plus the member-level application records the
// sibling services keep in the shared database.
package stagestore

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
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Store struct {
	groupScreenings *mongo.Collection
	groupLoans      *mongo.Collection
	groupACATs      *mongo.Collection

	screenings *mongo.Collection
	loans      *mongo.Collection
	acats      *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		groupScreenings: db.Collection("group_screenings"),
		groupLoans:      db.Collection("group_loans"),
		groupACATs:      db.Collection("group_acats"),
		screenings:      db.Collection("screenings"),
		loans:           db.Collection("loans"),
		acats:           db.Collection("client_acats"),
	}
}

func (s *Store) aggregates(stage status.Stage) (*mongo.Collection, string, error) {
	switch stage {
	case status.StageScreening:
		return s.groupScreenings, "screenings", nil
	case status.StageLoan:
		return s.groupLoans, "loans", nil
	case status.StageACAT:
		return s.groupACATs, "acats", nil
	}
	return nil, "", fmt.Errorf("stagestore: unknown stage %q", stage)
}

func (s *Store) applications(stage status.Stage) (*mongo.Collection, error) {
	switch stage {
	case status.StageScreening:
		return s.screenings, nil
	case status.StageLoan:
		return s.loans, nil
	case status.StageACAT:
		return s.acats, nil
	}
	return nil, fmt.Errorf("stagestore: unknown stage %q", stage)
}

// aggregateDoc is the raw document shape shared by the three aggregate
// collections; only the member-array field name differs per collection.
type aggregateDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Group        primitive.ObjectID   `bson:"group"`
	CycleNumber  int                  `bson:"cycle_number"`
	Screenings   []models.MemberEntry `bson:"screenings,omitempty"`
	Loans        []models.MemberEntry `bson:"loans,omitempty"`
	ACATs        []models.MemberEntry `bson:"acats,omitempty"`
	Status       string               `bson:"status"`
	CreatedBy    primitive.ObjectID   `bson:"created_by,omitempty"`
	DateCreated  time.Time            `bson:"date_created"`
	LastModified time.Time            `bson:"last_modified"`
}

func (d *aggregateDoc) toAggregate(stage status.Stage) *lifecycle.StageAggregate {
	agg := &lifecycle.StageAggregate{ID: d.ID, Group: d.Group, Status: d.Status}
	switch stage {
	case status.StageScreening:
		agg.Members = d.Screenings
	case status.StageLoan:
		agg.Members = d.Loans
	case status.StageACAT:
		agg.Members = d.ACATs
	}
	return agg
}

// Create inserts a stage aggregate with status "new".
func (s *Store) Create(ctx context.Context, stage status.Stage, group, createdBy primitive.ObjectID, members []models.MemberEntry) (*lifecycle.StageAggregate, error) {
	col, field, err := s.aggregates(stage)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.MemberEntry{}
	}

	now := time.Now().UTC()
	doc := bson.M{
		"_id":           primitive.NewObjectID(),
		"group":         group,
		field:           members,
		"status":        "new",
		"created_by":    createdBy,
		"date_created":  now,
		"last_modified": now,
	}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &lifecycle.StageAggregate{
		ID:      doc["_id"].(primitive.ObjectID),
		Group:   group,
		Status:  "new",
		Members: members,
	}, nil
}

func (s *Store) GetByID(ctx context.Context, stage status.Stage, id primitive.ObjectID) (*lifecycle.StageAggregate, error) {
	col, _, err := s.aggregates(stage)
	if err != nil {
		return nil, err
	}
	var doc aggregateDoc
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(stage), nil
}

func (s *Store) LatestByGroup(ctx context.Context, stage status.Stage, group primitive.ObjectID) (*lifecycle.StageAggregate, error) {
	col, _, err := s.aggregates(stage)
	if err != nil {
		return nil, err
	}
	var doc aggregateDoc
	err = col.FindOne(ctx, bson.M{"group": group},
		options.FindOne().SetSort(bson.M{"date_created": -1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(stage), nil
}

func (s *Store) SetMembers(ctx context.Context, stage status.Stage, id primitive.ObjectID, members []models.MemberEntry, stageStatus string) (*lifecycle.StageAggregate, error) {
	col, field, err := s.aggregates(stage)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.MemberEntry{}
	}
	var doc aggregateDoc
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		field:           members,
		"status":        stageStatus,
		"last_modified": time.Now().UTC(),
	}}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(stage), nil
}

func (s *Store) SetStatus(ctx context.Context, stage status.Stage, id primitive.ObjectID, stageStatus string) (*lifecycle.StageAggregate, error) {
	col, _, err := s.aggregates(stage)
	if err != nil {
		return nil, err
	}
	var doc aggregateDoc
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":        stageStatus,
		"last_modified": time.Now().UTC(),
	}}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(stage), nil
}

func (s *Store) byGroupNewestFirst(ctx context.Context, stage status.Stage, group primitive.ObjectID, out any) error {
	col, _, err := s.aggregates(stage)
	if err != nil {
		return err
	}
	cur, err := col.Find(ctx, bson.M{"group": group},
		options.Find().SetSort(bson.M{"date_created": -1}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

// ScreeningsByGroup returns a group's screening aggregates, newest first.
func (s *Store) ScreeningsByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupScreening, error) {
	var docs []models.GroupScreening
	if err := s.byGroupNewestFirst(ctx, status.StageScreening, group, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// LoansByGroup returns a group's loan aggregates, newest first.
func (s *Store) LoansByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupLoan, error) {
	var docs []models.GroupLoan
	if err := s.byGroupNewestFirst(ctx, status.StageLoan, group, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ACATsByGroup returns a group's ACAT aggregates, newest first.
func (s *Store) ACATsByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupACAT, error) {
	var docs []models.GroupACAT
	if err := s.byGroupNewestFirst(ctx, status.StageACAT, group, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// applicationDoc is the slice of a member-level record this service reads.
type applicationDoc struct {
	ID     primitive.ObjectID `bson:"_id"`
	Client primitive.ObjectID `bson:"client"`
	Status string             `bson:"status"`
}

// Statuses returns one member status per ref, in ref order.
func (s *Store) Statuses(ctx context.Context, stage status.Stage, refs []primitive.ObjectID) ([]string, error) {
	col, err := s.applications(stage)
	if err != nil {
		return nil, err
	}

	cur, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": refs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]string, len(docs))
	for _, d := range docs {
		byID[d.ID] = d.Status
	}
	statuses := make([]string, len(refs))
	for i, ref := range refs {
		st, ok := byID[ref]
		if !ok {
			return nil, fmt.Errorf("stagestore: %s application %s not found", stage, ref.Hex())
		}
		statuses[i] = st
	}
	return statuses, nil
}

// LatestByClient returns the member's newest record for the stage, or nil
// when the member has none.
func (s *Store) LatestByClient(ctx context.Context, stage status.Stage, client primitive.ObjectID) (*lifecycle.MemberApplication, error) {
	col, err := s.applications(stage)
	if err != nil {
		return nil, err
	}
	var doc applicationDoc
	err = col.FindOne(ctx, bson.M{"client": client},
		options.FindOne().SetSort(bson.M{"date_created": -1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lifecycle.MemberApplication{Ref: doc.ID, Client: doc.Client, Status: doc.Status}, nil
}

// SetForGroup flips the group-ownership marker on a member-level record.
func (s *Store) SetForGroup(ctx context.Context, stage status.Stage, ref primitive.ObjectID, forGroup bool) error {
	col, err := s.applications(stage)
	if err != nil {
		return err
	}
	_, err = col.UpdateByID(ctx, ref, bson.M{"$set": bson.M{"for_group": forGroup}})
	return err
}

// EnsureIndexes creates the group+date indexes the newest-first reads use.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	keys := bson.D{{Key: "group", Value: 1}, {Key: "date_created", Value: -1}}
	for _, col := range []*mongo.Collection{s.groupScreenings, s.groupLoans, s.groupACATs} {
		if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			return err
		}
	}
	return nil
}
