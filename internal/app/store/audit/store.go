// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event is one audit record in the audit_events collection.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Event       string             `bson:"event" json:"event"`
	Actor       primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	Message     string             `bson:"message" json:"message"`
	RequestID   string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	DateCreated time.Time          `bson:"date_created" json:"date_created"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

func (s *Store) Log(ctx context.Context, e Event) error {
	e.ID = primitive.NewObjectID()
	if e.DateCreated.IsZero() {
		e.DateCreated = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// ByActor returns an actor's events, newest first, capped at limit.
func (s *Store) ByActor(ctx context.Context, actor primitive.ObjectID, limit int64) ([]Event, error) {
	cur, err := s.c.Find(ctx, bson.M{"actor": actor},
		options.Find().SetSort(bson.M{"date_created": -1}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Recent returns the newest events across all actors, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int64) ([]Event, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"date_created": -1}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
