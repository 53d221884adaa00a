// internal/domain/models/proposal.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/domain/money"
)

// LoanProposal is the per-client proposal a loan officer fills in during
// appraisal. Granted and paid amounts roll up into the group totals when the
// payment status is refreshed.
type LoanProposal struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Client         primitive.ObjectID `bson:"client" json:"client"`
	Group          primitive.ObjectID `bson:"group,omitempty" json:"group,omitempty"`
	CycleNumber    int                `bson:"loan_cycle_number" json:"loan_cycle_number"`
	Status         string             `bson:"status" json:"status"`
	ProposedAmount money.Amount       `bson:"loan_proposed" json:"loan_proposed"`
	ApprovedAmount money.Amount       `bson:"loan_approved" json:"loan_approved"`
	PaidAmount     money.Amount       `bson:"loan_paid" json:"loan_paid"`
	DateCreated    time.Time          `bson:"date_created" json:"date_created"`
	LastModified   time.Time          `bson:"last_modified" json:"last_modified"`
}
