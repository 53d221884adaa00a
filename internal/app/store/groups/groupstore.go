// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AbnetS/bidir-group/internal/app/lifecycle"
	"github.com/AbnetS/bidir-group/internal/app/system/paging"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) Create(ctx context.Context, g *models.Group) (*models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	if g.Status == "" {
		g.Status = status.GroupNew
	}
	if g.DateCreated.IsZero() {
		g.DateCreated = now
	}
	g.LastModified = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Group, error) {
	set["last_modified"] = time.Now().UTC()
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, st status.Group) (*models.Group, error) {
	return s.set(ctx, id, bson.M{"status": st})
}

func (s *Store) UpdateStatusGranted(ctx context.Context, id primitive.ObjectID, st status.Group, granted money.Amount) (*models.Group, error) {
	return s.set(ctx, id, bson.M{"status": st, "total_granted_amount": granted})
}

func (s *Store) UpdateStatusPaid(ctx context.Context, id primitive.ObjectID, st status.Group, paid money.Amount) (*models.Group, error) {
	return s.set(ctx, id, bson.M{"status": st, "total_paid_amount": paid})
}

func (s *Store) UpdateMembers(ctx context.Context, id primitive.ObjectID, members []primitive.ObjectID) (*models.Group, error) {
	return s.set(ctx, id, bson.M{"members": members})
}

func (s *Store) UpdateLeader(ctx context.Context, id primitive.ObjectID, leader primitive.ObjectID) (*models.Group, error) {
	return s.set(ctx, id, bson.M{"leader": leader})
}

// UpdateDetails patches the editable group fields; nil pointers are skipped.
func (s *Store) UpdateDetails(ctx context.Context, id primitive.ObjectID, p lifecycle.UpdateGroupParams) (*models.Group, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.MemberCount != nil {
		set["no_of_members"] = *p.MemberCount
	}
	if p.TotalAmount != nil {
		set["total_amount"] = *p.TotalAmount
	}
	if len(set) == 0 {
		return s.Get(ctx, id)
	}
	return s.set(ctx, id, set)
}

// BeginCycle resets the group for its next loan cycle in one update.
func (s *Store) BeginCycle(ctx context.Context, id primitive.ObjectID, total money.Amount) (*models.Group, error) {
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":               status.GroupNew,
			"total_amount":         total,
			"total_granted_amount": money.Zero,
			"total_paid_amount":    money.Zero,
			"last_modified":        time.Now().UTC(),
		},
		"$inc": bson.M{"loan_cycle_number": 1},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListFilter narrows List. Zero values mean no constraint.
type ListFilter struct {
	Branch primitive.ObjectID
	Status status.Group
	Name   string
}

// List returns a page of groups plus a has-next indicator.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Page) ([]models.Group, bool, error) {
	filter := bson.M{}
	if !f.Branch.IsZero() {
		filter["branch"] = f.Branch
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Name != "" {
		filter["name"] = primitive.Regex{Pattern: f.Name, Options: "i"}
	}

	cur, err := s.c.Find(ctx, filter, p.FindOptions())
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, false, err
	}
	groups, hasNext := paging.Trim(groups, p)
	return groups, hasNext, nil
}

// EnsureIndexes creates the indexes List and the member lookups rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "branch", Value: 1}, {Key: "date_created", Value: -1}}},
		{Keys: bson.D{{Key: "members", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}
