// internal/app/lifecycle/reducer.go

// Package lifecycle implements the group loan-cycle engine: the pure status
// reducers that fold member-level application statuses into one group-level
// status, the gate checks that decide when a stage may start, and the
// controller that orchestrates stage operations against the stores and the
// upstream stage services.
package lifecycle

import (
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

// Flags are the side signals a reduction can raise alongside the status
// pair. AllSubmitted routes an approval task to the group creator; ForReview
// routes a review task.
type Flags struct {
	AllSubmitted bool
	ForReview    bool
}

// Outcome is the result of reducing one stage's member statuses.
type Outcome struct {
	GroupStatus status.Group
	StageStatus string
	Flags       Flags
}

// Reduce folds the member-level statuses of one stage into the aggregate
// stage status and the resulting group status. It is deterministic and
// total: unmatched combinations fall through to the stage's in-progress
// pair.
//
// The decline cases test only for the absence of open markers, so a decline
// co-occurring with approvals still reduces to the decline. In the ACAT
// ladder the declined and resubmitted markers exclude each other, so those
// two co-occurring fall through to in-progress.
func Reduce(stage status.Stage, statuses []string) Outcome {
	switch stage {
	case status.StageScreening:
		return reduceScreening(statuses)
	case status.StageLoan:
		return reduceLoan(statuses)
	case status.StageACAT:
		return reduceACAT(statuses)
	}
	return Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningInProgress}
}

func reduceScreening(statuses []string) Outcome {
	switch {
	case containsOnly(statuses, status.ScreeningNew):
		return Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningNew}
	case containsOnly(statuses, status.ScreeningSubmitted):
		return Outcome{
			GroupStatus: status.GroupScreeningSubmitted,
			StageStatus: status.ScreeningSubmitted,
			Flags:       Flags{AllSubmitted: true},
		}
	case containsOnly(statuses, status.ScreeningApproved):
		return Outcome{GroupStatus: status.GroupEligible, StageStatus: status.ScreeningApproved}
	case contains(statuses, status.ScreeningDeclinedFinal) &&
		!containsAny(statuses, status.ScreeningNew, status.ScreeningSubmitted, status.ScreeningInProgress):
		return Outcome{GroupStatus: status.GroupIneligible, StageStatus: status.ScreeningDeclinedFinal}
	case contains(statuses, status.ScreeningDeclinedUnderReview) &&
		!containsAny(statuses, status.ScreeningNew, status.ScreeningSubmitted, status.ScreeningInProgress):
		return Outcome{
			GroupStatus: status.GroupScreeningInProgress,
			StageStatus: status.ScreeningDeclinedUnderReview,
			Flags:       Flags{ForReview: true},
		}
	}
	return Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningInProgress}
}

func reduceLoan(statuses []string) Outcome {
	switch {
	case containsOnly(statuses, status.LoanNew):
		return Outcome{GroupStatus: status.GroupLoanInProgress, StageStatus: status.LoanNew}
	case containsOnly(statuses, status.LoanSubmitted):
		return Outcome{
			GroupStatus: status.GroupLoanSubmitted,
			StageStatus: status.LoanSubmitted,
			Flags:       Flags{AllSubmitted: true},
		}
	case containsOnly(statuses, status.LoanAccepted):
		return Outcome{GroupStatus: status.GroupLoanAccepted, StageStatus: status.LoanAccepted}
	case contains(statuses, status.LoanRejected) &&
		!containsAny(statuses, status.LoanNew, status.LoanSubmitted, status.LoanInProgress):
		return Outcome{GroupStatus: status.GroupLoanRejected, StageStatus: status.LoanRejected}
	case contains(statuses, status.LoanDeclinedUnderReview) &&
		!containsAny(statuses, status.LoanNew, status.LoanSubmitted, status.LoanInProgress):
		return Outcome{
			GroupStatus: status.GroupLoanInProgress,
			StageStatus: status.LoanDeclinedUnderReview,
			Flags:       Flags{ForReview: true},
		}
	}
	return Outcome{GroupStatus: status.GroupLoanInProgress, StageStatus: status.LoanInProgress}
}

func reduceACAT(statuses []string) Outcome {
	switch {
	case containsOnly(statuses, status.ACATNew):
		return Outcome{GroupStatus: status.GroupACATInProgress, StageStatus: status.ACATNew}
	case containsOnly(statuses, status.ACATSubmitted):
		return Outcome{
			GroupStatus: status.GroupACATSubmitted,
			StageStatus: status.ACATSubmitted,
			Flags:       Flags{AllSubmitted: true},
		}
	case containsOnly(statuses, status.ACATAuthorized):
		return Outcome{GroupStatus: status.GroupACATAuthorized, StageStatus: status.ACATAuthorized}
	case contains(statuses, status.ACATDeclinedForReview) &&
		!containsAny(statuses, status.ACATNew, status.ACATSubmitted, status.ACATResubmitted, status.ACATInProgress):
		return Outcome{GroupStatus: status.GroupACATDeclinedForReview, StageStatus: status.ACATDeclinedForReview}
	case contains(statuses, status.ACATResubmitted) &&
		!containsAny(statuses, status.ACATNew, status.ACATDeclinedForReview, status.ACATInProgress):
		return Outcome{GroupStatus: status.GroupACATResubmitted, StageStatus: status.ACATResubmitted}
	}
	return Outcome{GroupStatus: status.GroupACATInProgress, StageStatus: status.ACATInProgress}
}

// ReducePayment folds member payment statuses into a group status once
// appraisal completes. Unlike Reduce it is partial: a status set with no
// granted members cannot be classified and returns ok=false.
func ReducePayment(statuses []string) (status.Group, bool) {
	switch {
	case containsOnly(statuses, status.MemberLoanGranted):
		return status.GroupLoanGranted, true
	case containsOnly(statuses, status.MemberLoanPaid):
		return status.GroupLoanPaid, true
	case containsOnly(statuses, status.MemberLoanGranted, status.MemberLoanPaid):
		return status.GroupPaymentInProgress, true
	case contains(statuses, status.MemberLoanGranted):
		return status.GroupAppraisalInProgress, true
	}
	return "", false
}

// containsOnly reports whether the set of observed statuses equals the
// target set exactly, by symmetric-difference emptiness. An empty input
// never matches a non-empty target; two empty sets match vacuously.
func containsOnly(statuses []string, want ...string) bool {
	seen := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		seen[s] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(want))
	for _, w := range want {
		wanted[w] = struct{}{}
	}
	if len(seen) != len(wanted) {
		return false
	}
	for w := range wanted {
		if _, ok := seen[w]; !ok {
			return false
		}
	}
	return true
}

func contains(statuses []string, want string) bool {
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

func containsAny(statuses []string, want ...string) bool {
	for _, w := range want {
		if contains(statuses, w) {
			return true
		}
	}
	return false
}
