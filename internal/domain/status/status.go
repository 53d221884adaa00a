// internal/domain/status/status.go

// Package status defines the closed status vocabularies for groups and for
// the per-member application records of each loan-cycle stage.
//
// The group status is the single value the rest of the platform reads to know
// where a group is in its loan cycle. It is always derived: the stage
// reducers compute it from member-level statuses, except for the explicit
// loan_paid override.
package status

// Group is the aggregate group-level status.
type Group string

const (
	GroupNew Group = "new"

	GroupScreeningInProgress Group = "screening_in_progress"
	GroupScreeningSubmitted  Group = "screening_submitted"
	GroupEligible            Group = "eligible"
	GroupIneligible          Group = "ineligible"

	GroupLoanNew        Group = "loan_application_new"
	GroupLoanInProgress Group = "loan_application_inprogress"
	GroupLoanSubmitted  Group = "loan_application_submitted"
	GroupLoanAccepted   Group = "loan_application_accepted"
	GroupLoanRejected   Group = "loan_application_rejected"

	GroupACATNew               Group = "ACAT_New"
	GroupACATInProgress        Group = "ACAT_IN_PROGRESS"
	GroupACATSubmitted         Group = "ACAT-submitted"
	GroupACATResubmitted       Group = "ACAT-Resubmitted"
	GroupACATAuthorized        Group = "ACAT-Authorized"
	GroupACATDeclinedForReview Group = "ACAT_Declined_For_Review"

	GroupAppraisalInProgress Group = "appraisal_in_progress"
	GroupLoanGranted         Group = "loan_granted"
	GroupPaymentInProgress   Group = "payment_in_progress"
	GroupLoanPaid            Group = "loan_paid"
)

// Stage identifies one pipeline phase within a loan cycle.
type Stage string

const (
	StageScreening Stage = "screening"
	StageLoan      Stage = "loan"
	StageACAT      Stage = "acat"
)

// Label returns the stage name used in gate error messages.
func (s Stage) Label() string {
	switch s {
	case StageScreening:
		return "Screening"
	case StageLoan:
		return "Loan"
	case StageACAT:
		return "ACAT"
	}
	return string(s)
}

// Screening statuses carried by member-level screening records and by the
// GroupScreening aggregate.
const (
	ScreeningNew                 = "new"
	ScreeningInProgress          = "screening_inprogress"
	ScreeningSubmitted           = "submitted"
	ScreeningApproved            = "approved"
	ScreeningDeclinedFinal       = "declined_final"
	ScreeningDeclinedUnderReview = "declined_under_review"
)

// Loan statuses carried by member-level loan applications and by the
// GroupLoan aggregate.
const (
	LoanNew                 = "new"
	LoanInProgress          = "inprogress"
	LoanSubmitted           = "submitted"
	LoanAccepted            = "accepted"
	LoanRejected            = "rejected"
	LoanDeclinedUnderReview = "declined_under_review"
)

// ACAT statuses carried by member-level client ACATs and by the GroupACAT
// aggregate.
const (
	ACATNew               = "new"
	ACATInProgress        = "inprogress"
	ACATSubmitted         = "submitted"
	ACATResubmitted       = "resubmitted"
	ACATAuthorized        = "authorized"
	ACATDeclinedForReview = "declined_for_review"
)

// Member payment statuses carried by client records once appraisal completes.
const (
	MemberLoanGranted = "loan_granted"
	MemberLoanPaid    = "loan_paid"
)

// openStatuses maps each stage to the statuses that mean the stage is still
// being worked. A stage record in any of these states blocks the next stage
// from starting and blocks a new cycle.
var openStatuses = map[Stage][]string{
	StageScreening: {ScreeningNew, ScreeningInProgress, ScreeningSubmitted},
	StageLoan:      {LoanNew, LoanSubmitted, LoanInProgress},
	StageACAT:      {ACATNew, ACATSubmitted, ACATResubmitted, ACATInProgress},
}

// IsOpen reports whether the given stage-record status is non-terminal for
// the stage.
func IsOpen(stage Stage, s string) bool {
	for _, open := range openStatuses[stage] {
		if s == open {
			return true
		}
	}
	return false
}
