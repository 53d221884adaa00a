// internal/app/lifecycle/reducer_test.go
package lifecycle

import (
	"testing"

	"github.com/AbnetS/bidir-group/internal/domain/status"
)

func TestReduceScreening(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     Outcome
	}{
		{
			name:     "all new",
			statuses: []string{status.ScreeningNew, status.ScreeningNew},
			want:     Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningNew},
		},
		{
			name:     "all submitted raises approval flag",
			statuses: []string{status.ScreeningSubmitted, status.ScreeningSubmitted, status.ScreeningSubmitted},
			want: Outcome{
				GroupStatus: status.GroupScreeningSubmitted,
				StageStatus: status.ScreeningSubmitted,
				Flags:       Flags{AllSubmitted: true},
			},
		},
		{
			name:     "all approved makes group eligible",
			statuses: []string{status.ScreeningApproved, status.ScreeningApproved},
			want:     Outcome{GroupStatus: status.GroupEligible, StageStatus: status.ScreeningApproved},
		},
		{
			name:     "final decline with the rest approved makes group ineligible",
			statuses: []string{status.ScreeningApproved, status.ScreeningDeclinedFinal},
			want:     Outcome{GroupStatus: status.GroupIneligible, StageStatus: status.ScreeningDeclinedFinal},
		},
		{
			name:     "final decline alongside an open member stays in progress",
			statuses: []string{status.ScreeningDeclinedFinal, status.ScreeningNew},
			want:     Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningInProgress},
		},
		{
			name:     "under-review decline raises review flag",
			statuses: []string{status.ScreeningApproved, status.ScreeningDeclinedUnderReview},
			want: Outcome{
				GroupStatus: status.GroupScreeningInProgress,
				StageStatus: status.ScreeningDeclinedUnderReview,
				Flags:       Flags{ForReview: true},
			},
		},
		{
			name:     "both declines reduce to the final decline",
			statuses: []string{status.ScreeningDeclinedFinal, status.ScreeningDeclinedUnderReview},
			want:     Outcome{GroupStatus: status.GroupIneligible, StageStatus: status.ScreeningDeclinedFinal},
		},
		{
			name:     "mixed open members stay in progress",
			statuses: []string{status.ScreeningNew, status.ScreeningSubmitted},
			want:     Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningInProgress},
		},
		{
			name:     "no members stay in progress",
			statuses: nil,
			want:     Outcome{GroupStatus: status.GroupScreeningInProgress, StageStatus: status.ScreeningInProgress},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(status.StageScreening, tt.statuses)
			if got != tt.want {
				t.Errorf("Reduce(screening, %v) = %+v, want %+v", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestReduceLoan(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     Outcome
	}{
		{
			name:     "all new",
			statuses: []string{status.LoanNew},
			want:     Outcome{GroupStatus: status.GroupLoanInProgress, StageStatus: status.LoanNew},
		},
		{
			name:     "all submitted raises approval flag",
			statuses: []string{status.LoanSubmitted, status.LoanSubmitted},
			want: Outcome{
				GroupStatus: status.GroupLoanSubmitted,
				StageStatus: status.LoanSubmitted,
				Flags:       Flags{AllSubmitted: true},
			},
		},
		{
			name:     "all accepted",
			statuses: []string{status.LoanAccepted, status.LoanAccepted},
			want:     Outcome{GroupStatus: status.GroupLoanAccepted, StageStatus: status.LoanAccepted},
		},
		{
			name:     "rejection with the rest accepted rejects the group",
			statuses: []string{status.LoanAccepted, status.LoanRejected},
			want:     Outcome{GroupStatus: status.GroupLoanRejected, StageStatus: status.LoanRejected},
		},
		{
			name:     "rejection alongside an open member stays in progress",
			statuses: []string{status.LoanRejected, status.LoanInProgress},
			want:     Outcome{GroupStatus: status.GroupLoanInProgress, StageStatus: status.LoanInProgress},
		},
		{
			name:     "under-review decline raises review flag",
			statuses: []string{status.LoanAccepted, status.LoanDeclinedUnderReview},
			want: Outcome{
				GroupStatus: status.GroupLoanInProgress,
				StageStatus: status.LoanDeclinedUnderReview,
				Flags:       Flags{ForReview: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(status.StageLoan, tt.statuses)
			if got != tt.want {
				t.Errorf("Reduce(loan, %v) = %+v, want %+v", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestReduceACAT(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     Outcome
	}{
		{
			name:     "all new",
			statuses: []string{status.ACATNew, status.ACATNew},
			want:     Outcome{GroupStatus: status.GroupACATInProgress, StageStatus: status.ACATNew},
		},
		{
			name:     "all submitted raises approval flag",
			statuses: []string{status.ACATSubmitted},
			want: Outcome{
				GroupStatus: status.GroupACATSubmitted,
				StageStatus: status.ACATSubmitted,
				Flags:       Flags{AllSubmitted: true},
			},
		},
		{
			name:     "all authorized",
			statuses: []string{status.ACATAuthorized, status.ACATAuthorized},
			want:     Outcome{GroupStatus: status.GroupACATAuthorized, StageStatus: status.ACATAuthorized},
		},
		{
			name:     "decline with the rest authorized declines without a review flag",
			statuses: []string{status.ACATAuthorized, status.ACATDeclinedForReview},
			want:     Outcome{GroupStatus: status.GroupACATDeclinedForReview, StageStatus: status.ACATDeclinedForReview},
		},
		{
			name:     "resubmissions after a review round",
			statuses: []string{status.ACATResubmitted, status.ACATSubmitted},
			want:     Outcome{GroupStatus: status.GroupACATResubmitted, StageStatus: status.ACATResubmitted},
		},
		{
			name:     "decline co-occurring with a resubmission stays in progress",
			statuses: []string{status.ACATDeclinedForReview, status.ACATResubmitted},
			want:     Outcome{GroupStatus: status.GroupACATInProgress, StageStatus: status.ACATInProgress},
		},
		{
			name:     "open member keeps the stage in progress",
			statuses: []string{status.ACATAuthorized, status.ACATInProgress},
			want:     Outcome{GroupStatus: status.GroupACATInProgress, StageStatus: status.ACATInProgress},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(status.StageACAT, tt.statuses)
			if got != tt.want {
				t.Errorf("Reduce(acat, %v) = %+v, want %+v", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestReducePayment(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     status.Group
		ok       bool
	}{
		{
			name:     "all granted",
			statuses: []string{status.MemberLoanGranted, status.MemberLoanGranted},
			want:     status.GroupLoanGranted,
			ok:       true,
		},
		{
			name:     "all paid",
			statuses: []string{status.MemberLoanPaid},
			want:     status.GroupLoanPaid,
			ok:       true,
		},
		{
			name:     "exactly granted and paid means payment in progress",
			statuses: []string{status.MemberLoanGranted, status.MemberLoanPaid},
			want:     status.GroupPaymentInProgress,
			ok:       true,
		},
		{
			name:     "granted mixed with anything else means appraisal in progress",
			statuses: []string{status.MemberLoanGranted, "active"},
			want:     status.GroupAppraisalInProgress,
			ok:       true,
		},
		{
			name:     "no granted members cannot be classified",
			statuses: []string{"active", "active"},
			ok:       false,
		},
		{
			name:     "empty set cannot be classified",
			statuses: nil,
			ok:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReducePayment(tt.statuses)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ReducePayment(%v) = (%q, %v), want (%q, %v)", tt.statuses, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestContainsOnly(t *testing.T) {
	if containsOnly(nil, status.ScreeningNew) {
		t.Error("empty input must not match a non-empty target")
	}
	if !containsOnly(nil) {
		t.Error("two empty sets must match")
	}
	if !containsOnly([]string{"a", "a", "b"}, "b", "a") {
		t.Error("duplicates and order must not matter")
	}
	if containsOnly([]string{"a", "b", "c"}, "a", "b") {
		t.Error("an extra observed status must not match")
	}
	if containsOnly([]string{"a"}, "a", "b") {
		t.Error("a missing target status must not match")
	}
}
