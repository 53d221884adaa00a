// internal/app/lifecycle/gate.go

package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

// StageIndex loads a group's stage aggregates, newest first.
type StageIndex interface {
	ScreeningsByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupScreening, error)
	LoansByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupLoan, error)
	ACATsByGroup(ctx context.Context, group primitive.ObjectID) ([]models.GroupACAT, error)
}

// Gate checks whether a group may legally start a stage, by inspecting every
// earlier record of the prior stages and of the target stage itself.
type Gate struct {
	Stages StageIndex
}

// ValidateLoanStart checks that the group may open a loan application stage:
// a screening must exist, and no screening, loan, or ACAT may still be open.
func (g *Gate) ValidateLoanStart(ctx context.Context, group primitive.ObjectID) error {
	screenings, err := g.Stages.ScreeningsByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load screenings: %w", err)
	}
	if len(screenings) == 0 {
		return apperr.New(apperr.Gate, "No screening is created for the group yet and loan application can not be created!")
	}
	for _, s := range screenings {
		if status.IsOpen(status.StageScreening, s.Status) {
			return apperr.New(apperr.Gate, "The group is under screening and loan application can not be created")
		}
	}

	loans, err := g.Stages.LoansByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load loans: %w", err)
	}
	for _, l := range loans {
		if status.IsOpen(status.StageLoan, l.Status) {
			return apperr.New(apperr.Gate, "The group has a loan application in progress!!")
		}
	}

	acats, err := g.Stages.ACATsByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load acats: %w", err)
	}
	for _, a := range acats {
		if status.IsOpen(status.StageACAT, a.Status) {
			return apperr.New(apperr.Gate, "The group has an ACAT in progress and past the loan application stage!!")
		}
	}
	return nil
}

// ValidateACATStart checks that the group may open an ACAT stage. On top of
// the open-stage checks it requires the immediately preceding loan to not be
// rejected.
func (g *Gate) ValidateACATStart(ctx context.Context, group primitive.ObjectID) error {
	screenings, err := g.Stages.ScreeningsByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load screenings: %w", err)
	}
	if len(screenings) == 0 {
		return apperr.New(apperr.Gate, "No screening is created for the group yet and A-CAT processing can not be started!")
	}
	for _, s := range screenings {
		if status.IsOpen(status.StageScreening, s.Status) {
			return apperr.New(apperr.Gate, "The group is under screening and A-CAT processing can not be started.")
		}
	}

	loans, err := g.Stages.LoansByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load loans: %w", err)
	}
	for _, l := range loans {
		if status.IsOpen(status.StageLoan, l.Status) {
			return apperr.New(apperr.Gate, "Loan application stage is not completed for the group and A-CAT processing can not be started.")
		}
	}
	if len(loans) > 0 && loans[0].Status == status.LoanRejected {
		return apperr.New(apperr.Gate, "The group loan application is rejected and A-CAT processing can not started.")
	}

	acats, err := g.Stages.ACATsByGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("gate: load acats: %w", err)
	}
	for _, a := range acats {
		if status.IsOpen(status.StageACAT, a.Status) {
			return apperr.New(apperr.Gate, "The group has already an A-CAT application in progress.")
		}
	}
	return nil
}

// ValidateNewCycle checks that every stage of the current cycle is closed,
// and returns the newest screening whose member list seeds the next cycle.
func (g *Gate) ValidateNewCycle(ctx context.Context, group primitive.ObjectID) (*models.GroupScreening, error) {
	screenings, err := g.Stages.ScreeningsByGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("gate: load screenings: %w", err)
	}
	for _, s := range screenings {
		if status.IsOpen(status.StageScreening, s.Status) {
			return nil, apperr.New(apperr.Gate, "The group has a screening in progress and thus has an incomplete loan cycle.")
		}
	}

	loans, err := g.Stages.LoansByGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("gate: load loans: %w", err)
	}
	for _, l := range loans {
		if status.IsOpen(status.StageLoan, l.Status) {
			return nil, apperr.New(apperr.Gate, "The group has a loan application in progress and thus has an incomplete loan cycle.")
		}
	}

	acats, err := g.Stages.ACATsByGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("gate: load acats: %w", err)
	}
	for _, a := range acats {
		if status.IsOpen(status.StageACAT, a.Status) {
			return nil, apperr.New(apperr.Gate, "The group has an ACAT in progress and thus has an incomplete loan cycle.")
		}
	}

	if len(screenings) == 0 {
		return nil, apperr.New(apperr.Gate, "No screening is created for the group yet and a new loan cycle can not be started.")
	}
	return &screenings[0], nil
}

// missingStages lists the labels of the required stage refs the cycle record
// does not carry yet, in pipeline order.
func missingStages(cycle *models.CycleRecord, required ...status.Stage) []string {
	var missing []string
	for _, stage := range required {
		if !cycle.HasStage(string(stage)) {
			missing = append(missing, stage.Label())
		}
	}
	return missing
}

// cycleInProgressErr builds the gate error naming every stage the active
// cycle is still missing.
func cycleInProgressErr(cycleNumber int, missing []string) error {
	return apperr.Newf(apperr.Gate,
		"Loan Cycle (%d) is in progress. Missing %s Application(s)",
		cycleNumber, strings.Join(missing, ", "))
}
