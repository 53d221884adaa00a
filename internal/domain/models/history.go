// internal/domain/models/history.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/domain/money"
)

// CycleRecord is one loan cycle's entry in a group's history ledger. Stage
// references are set exactly once as each stage starts; amounts are recorded
// when the loan is granted and when it is paid off.
type CycleRecord struct {
	CycleNumber  int                `bson:"cycle_number" json:"cycle_number"`
	Screening    primitive.ObjectID `bson:"screening,omitempty" json:"screening,omitempty"`
	Loan         primitive.ObjectID `bson:"loan,omitempty" json:"loan,omitempty"`
	ACAT         primitive.ObjectID `bson:"acat,omitempty" json:"acat,omitempty"`
	TotalAmount  money.Amount       `bson:"total_amount" json:"total_amount"`
	TotalGranted money.Amount       `bson:"total_granted_amount" json:"total_granted_amount"`
	TotalPaid    money.Amount       `bson:"total_paid_amount" json:"total_paid_amount"`
	StartedBy    primitive.ObjectID `bson:"started_by,omitempty" json:"started_by,omitempty"`
	LastEditBy   primitive.ObjectID `bson:"last_edit_by,omitempty" json:"last_edit_by,omitempty"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}

// HasStage reports whether the given stage reference is already set.
func (c *CycleRecord) HasStage(stage string) bool {
	switch stage {
	case "screening":
		return !c.Screening.IsZero()
	case "loan":
		return !c.Loan.IsZero()
	case "acat":
		return !c.ACAT.IsZero()
	}
	return false
}

// GroupHistory is the append-only per-group cycle ledger in the
// group_histories collection. Cycles holds one record per cycle number;
// CycleNumber mirrors the group's current cycle.
type GroupHistory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Group        primitive.ObjectID `bson:"group" json:"group"`
	Branch       primitive.ObjectID `bson:"branch,omitempty" json:"branch,omitempty"`
	CycleNumber  int                `bson:"cycle_number" json:"cycle_number"`
	Cycles       []CycleRecord      `bson:"cycles" json:"cycles"`
	DateCreated  time.Time          `bson:"date_created" json:"date_created"`
	LastModified time.Time          `bson:"last_modified" json:"last_modified"`
}

// Cycle returns the record for the given cycle number, or nil.
func (h *GroupHistory) Cycle(n int) *CycleRecord {
	for i := range h.Cycles {
		if h.Cycles[i].CycleNumber == n {
			return &h.Cycles[i]
		}
	}
	return nil
}

// Active returns the record for the history's current cycle number, or nil
// when no cycle has been started.
func (h *GroupHistory) Active() *CycleRecord {
	return h.Cycle(h.CycleNumber)
}
