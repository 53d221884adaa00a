// internal/domain/models/stages.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberEntry ties one group member to their per-member record in an
// upstream stage service. Status caches the member-level status seen at the
// last refresh; the reducers always run on freshly fetched statuses.
type MemberEntry struct {
	Client primitive.ObjectID `bson:"client" json:"client"`
	Ref    primitive.ObjectID `bson:"ref" json:"ref"`
	Status string             `bson:"status" json:"status"`
}

// GroupScreening aggregates the member screenings for one cycle.
type GroupScreening struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Group        primitive.ObjectID `bson:"group" json:"group"`
	CycleNumber  int                `bson:"cycle_number" json:"cycle_number"`
	Screenings   []MemberEntry      `bson:"screenings" json:"screenings"`
	Status       string             `bson:"status" json:"status"`
	CreatedBy    primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	DateCreated  time.Time          `bson:"date_created" json:"date_created"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}

// GroupLoan aggregates the member loan applications for one cycle.
type GroupLoan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Group        primitive.ObjectID `bson:"group" json:"group"`
	CycleNumber  int                `bson:"cycle_number" json:"cycle_number"`
	Loans        []MemberEntry      `bson:"loans" json:"loans"`
	Status       string             `bson:"status" json:"status"`
	CreatedBy    primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	DateCreated  time.Time          `bson:"date_created" json:"date_created"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}

// GroupACAT aggregates the member ACAT appraisals for one cycle.
type GroupACAT struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Group        primitive.ObjectID `bson:"group" json:"group"`
	CycleNumber  int                `bson:"cycle_number" json:"cycle_number"`
	ACATs        []MemberEntry      `bson:"acats" json:"acats"`
	Status       string             `bson:"status" json:"status"`
	CreatedBy    primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	DateCreated  time.Time          `bson:"date_created" json:"date_created"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}
