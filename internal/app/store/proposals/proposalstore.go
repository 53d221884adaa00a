// internal/app/store/proposals/proposalstore.go
package proposalstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AbnetS/bidir-group/internal/domain/models"
)

// Store reads loan proposals. The appraisal service owns the collection;
// this service only reads approved amounts for payment roll-ups.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("loan_proposals")}
}

// LatestByClient returns the client's newest proposal, or nil when the
// client has none.
func (s *Store) LatestByClient(ctx context.Context, client primitive.ObjectID) (*models.LoanProposal, error) {
	var p models.LoanProposal
	err := s.c.FindOne(ctx, bson.M{"client": client},
		options.FindOne().SetSort(bson.M{"date_created": -1})).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
