// internal/domain/models/group.go

// Package models holds the persistent document shapes shared by the stores
// and features.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

// Group is a lending group in the groups collection.
type Group struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name          string               `bson:"name" json:"name"`
	Branch        primitive.ObjectID   `bson:"branch" json:"branch"`
	Members       []primitive.ObjectID `bson:"members" json:"members"`
	Leader        primitive.ObjectID   `bson:"leader,omitempty" json:"leader,omitempty"`
	MemberCount   int                  `bson:"no_of_members" json:"no_of_members"`
	Status        status.Group         `bson:"status" json:"status"`
	LoanCycle     int                  `bson:"loan_cycle_number" json:"loan_cycle_number"`
	TotalAmount   money.Amount         `bson:"total_amount" json:"total_amount"`
	TotalGranted  money.Amount         `bson:"total_granted_amount" json:"total_granted_amount"`
	TotalPaid     money.Amount         `bson:"total_paid_amount" json:"total_paid_amount"`
	CreatedBy     primitive.ObjectID   `bson:"created_by,omitempty" json:"created_by,omitempty"`
	DateCreated   time.Time            `bson:"date_created" json:"date_created"`
	LastModified  time.Time            `bson:"last_modified" json:"last_modified"`
}

// HasMember reports whether the client id belongs to the group.
func (g *Group) HasMember(id primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}
