// internal/app/store/clients/clientstore.go
package clientstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AbnetS/bidir-group/internal/domain/models"
)

// Store reads and patches client records. The client service owns the
// collection; this service only flips the lifecycle fields it is
// responsible for.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clients")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var client models.Client
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":        st,
		"last_modified": time.Now().UTC(),
	}})
	return err
}

func (s *Store) SetForGroup(ctx context.Context, id primitive.ObjectID, forGroup bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"for_group":     forGroup,
		"last_modified": time.Now().UTC(),
	}})
	return err
}

// GetMany returns the clients for the given ids, in id order.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Client, error) {
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.Client
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Client, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	ordered := make([]models.Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}
