// internal/domain/models/client.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is a group member in the clients collection. Only the fields this
// service reads and writes are modeled; the client service owns the rest.
type Client struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	Branch       primitive.ObjectID `bson:"branch,omitempty" json:"branch,omitempty"`
	Status       string             `bson:"status" json:"status"`
	ForGroup     bool               `bson:"for_group" json:"for_group"`
	LoanCycle    int                `bson:"loan_cycle_number" json:"loan_cycle_number"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}
