// internal/app/lifecycle/controller.go

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AbnetS/bidir-group/internal/app/clients/stagesvc"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/domain/models"
	"github.com/AbnetS/bidir-group/internal/domain/money"
	"github.com/AbnetS/bidir-group/internal/domain/status"
)

// AmountField selects which cycle total RecordAmount patches.
type AmountField string

const (
	AmountGranted AmountField = "total_granted_amount"
	AmountPaid    AmountField = "total_paid_amount"
)

// GroupStore is the groups-collection surface the controller needs.
type GroupStore interface {
	Create(ctx context.Context, g *models.Group) (*models.Group, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, st status.Group) (*models.Group, error)
	UpdateStatusGranted(ctx context.Context, id primitive.ObjectID, st status.Group, granted money.Amount) (*models.Group, error)
	UpdateStatusPaid(ctx context.Context, id primitive.ObjectID, st status.Group, paid money.Amount) (*models.Group, error)
	UpdateMembers(ctx context.Context, id primitive.ObjectID, members []primitive.ObjectID) (*models.Group, error)
	UpdateLeader(ctx context.Context, id primitive.ObjectID, leader primitive.ObjectID) (*models.Group, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, p UpdateGroupParams) (*models.Group, error)
	// BeginCycle moves the group into a fresh cycle: status new, granted and
	// paid totals reset, total set, loan_cycle_number incremented.
	BeginCycle(ctx context.Context, id primitive.ObjectID, total money.Amount) (*models.Group, error)
}

// HistoryLedger is the append-only cycle ledger.
type HistoryLedger interface {
	CreateForGroup(ctx context.Context, group *models.Group, screeningRef primitive.ObjectID, total money.Amount, starter primitive.ObjectID) (*models.GroupHistory, error)
	ByGroup(ctx context.Context, group primitive.ObjectID) (*models.GroupHistory, error)
	// AttachStage sets the active cycle's stage ref exactly once.
	AttachStage(ctx context.Context, group primitive.ObjectID, stage status.Stage, ref, editor primitive.ObjectID) error
	// AdvanceCycle appends the next cycle's record with its screening ref
	// pre-filled and bumps the history's cycle number.
	AdvanceCycle(ctx context.Context, group primitive.ObjectID, screeningRef primitive.ObjectID, total money.Amount, starter primitive.ObjectID) (*models.GroupHistory, error)
	RecordAmount(ctx context.Context, group primitive.ObjectID, cycleNumber int, field AmountField, value money.Amount) error
}

// StageAggregate is the stage-neutral view of a GroupScreening, GroupLoan,
// or GroupACAT document.
type StageAggregate struct {
	ID      primitive.ObjectID
	Group   primitive.ObjectID
	Status  string
	Members []models.MemberEntry
}

// StageStore reads and writes the three stage-aggregate collections through
// one stage-parameterized surface.
type StageStore interface {
	StageIndex
	Create(ctx context.Context, stage status.Stage, group, createdBy primitive.ObjectID, members []models.MemberEntry) (*StageAggregate, error)
	GetByID(ctx context.Context, stage status.Stage, id primitive.ObjectID) (*StageAggregate, error)
	LatestByGroup(ctx context.Context, stage status.Stage, group primitive.ObjectID) (*StageAggregate, error)
	SetMembers(ctx context.Context, stage status.Stage, id primitive.ObjectID, members []models.MemberEntry, stageStatus string) (*StageAggregate, error)
	SetStatus(ctx context.Context, stage status.Stage, id primitive.ObjectID, stageStatus string) (*StageAggregate, error)
}

// MemberApplication is a member-level stage record as stored by the sibling
// services in the shared database.
type MemberApplication struct {
	Ref    primitive.ObjectID
	Client primitive.ObjectID
	Status string
}

// ApplicationStore reads member-level application records. Statuses must
// return one status per ref, in ref order.
type ApplicationStore interface {
	Statuses(ctx context.Context, stage status.Stage, refs []primitive.ObjectID) ([]string, error)
	// LatestByClient returns the member's newest record for the stage, or
	// nil when the member has none.
	LatestByClient(ctx context.Context, stage status.Stage, client primitive.ObjectID) (*MemberApplication, error)
	SetForGroup(ctx context.Context, stage status.Stage, ref primitive.ObjectID, forGroup bool) error
}

// ClientStore is the clients-collection surface the controller needs.
type ClientStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, st string) error
	SetForGroup(ctx context.Context, id primitive.ObjectID, forGroup bool) error
}

// ProposalStore reads loan proposals for payment roll-ups.
type ProposalStore interface {
	LatestByClient(ctx context.Context, client primitive.ObjectID) (*models.LoanProposal, error)
}

// TaskSink records review/approval work items with their notifications.
type TaskSink interface {
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	Notify(ctx context.Context, note *models.Notification) (*models.Notification, error)
}

// ScreeningService creates member screenings upstream.
type ScreeningService interface {
	CreateScreening(ctx context.Context, client, prior primitive.ObjectID) (*stagesvc.Application, error)
}

// LoanService creates member loan applications upstream.
type LoanService interface {
	CreateApplication(ctx context.Context, client primitive.ObjectID) (*stagesvc.Application, error)
}

// ACATService creates member ACAT appraisals upstream.
type ACATService interface {
	InitializeClientACAT(ctx context.Context, req stagesvc.MemberACATRequest) (*stagesvc.Application, error)
}

// Auditor records who did what. Implementations must not fail the caller.
type Auditor interface {
	Track(ctx context.Context, event string, actor primitive.ObjectID, message string)
}

// Controller orchestrates every group lifecycle operation: it runs the gate
// before a stage starts, the reducer after a stage mutates, and keeps the
// group document and the cycle ledger in step.
//
// Service clients are injected per controller instance, never held in
// package state.
type Controller struct {
	Groups    GroupStore
	Ledger    HistoryLedger
	Stages    StageStore
	Apps      ApplicationStore
	Clients   ClientStore
	Proposals ProposalStore
	Tasks     TaskSink
	Screening ScreeningService
	Loan      LoanService
	ACAT      ACATService
	Audit     Auditor
	Log       *zap.Logger
}

func (c *Controller) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Controller) gate() *Gate {
	return &Gate{Stages: c.Stages}
}

// activeCycle loads the group's history and its current cycle record.
func (c *Controller) activeCycle(ctx context.Context, group primitive.ObjectID) (*models.GroupHistory, *models.CycleRecord, error) {
	history, err := c.Ledger.ByGroup(ctx, group)
	if err != nil {
		return nil, nil, err
	}
	if history == nil {
		return nil, nil, apperr.New(apperr.NotFound, "Group Has No Loan History")
	}
	cycle := history.Active()
	if cycle == nil {
		return nil, nil, apperr.New(apperr.NotFound, "Group Has No Loan History")
	}
	return history, cycle, nil
}

func (c *Controller) getGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	group, err := c.Groups.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.New(apperr.NotFound, "Group Does Not Exist")
	}
	return group, nil
}

// CreateGroupParams carries the fields required to create a group. Members
// are added afterwards through AddMembers.
type CreateGroupParams struct {
	Name        string
	Branch      primitive.ObjectID
	MemberCount int
	TotalAmount money.Amount
}

// CreateGroup creates the group, its first-cycle screening aggregate, and
// its history ledger in one operation.
func (c *Controller) CreateGroup(ctx context.Context, actor primitive.ObjectID, p CreateGroupParams) (*models.Group, error) {
	if p.Name == "" {
		return nil, apperr.New(apperr.Validation, "Group Name is Empty.")
	}
	if p.Branch.IsZero() {
		return nil, apperr.New(apperr.Validation, "Branch is Empty.")
	}
	if p.MemberCount <= 0 {
		return nil, apperr.New(apperr.Validation, "Number of members is not specified.")
	}
	if p.TotalAmount.IsZero() {
		return nil, apperr.New(apperr.Validation, "Total amount is not specified.")
	}

	now := time.Now().UTC()
	group, err := c.Groups.Create(ctx, &models.Group{
		Name:         p.Name,
		Branch:       p.Branch,
		Members:      []primitive.ObjectID{},
		MemberCount:  p.MemberCount,
		Status:       status.GroupNew,
		LoanCycle:    1,
		TotalAmount:  p.TotalAmount,
		CreatedBy:    actor,
		DateCreated:  now,
		LastModified: now,
	})
	if err != nil {
		return nil, err
	}

	screening, err := c.Stages.Create(ctx, status.StageScreening, group.ID, actor, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.Ledger.CreateForGroup(ctx, group, screening.ID, p.TotalAmount, actor); err != nil {
		return nil, err
	}

	c.Audit.Track(ctx, "create_group", actor, fmt.Sprintf("Create group - %s", group.Name))
	return group, nil
}

// UpdateGroupParams carries the fields the generic group update may change.
// Nil pointers leave the stored value alone. Members, leader, and status have
// their own operations and are rejected before this is built.
type UpdateGroupParams struct {
	Name        *string
	MemberCount *int
	TotalAmount *money.Amount
}

// UpdateGroup patches the group's editable details.
func (c *Controller) UpdateGroup(ctx context.Context, actor, groupID primitive.ObjectID, p UpdateGroupParams) (*models.Group, error) {
	if p.Name != nil && *p.Name == "" {
		return nil, apperr.New(apperr.Validation, "Group Name is Empty.")
	}
	if p.MemberCount != nil && *p.MemberCount <= 0 {
		return nil, apperr.New(apperr.Validation, "Number of members is not specified.")
	}
	if p.TotalAmount != nil && p.TotalAmount.IsZero() {
		return nil, apperr.New(apperr.Validation, "Total amount is not specified.")
	}

	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if p.MemberCount != nil && *p.MemberCount < len(group.Members) {
		return nil, apperr.New(apperr.Conflict, "Number of Members Exceeded!")
	}

	updated, err := c.Groups.UpdateDetails(ctx, group.ID, p)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, "group_update", actor, fmt.Sprintf("Update group - %s", group.Name))
	return updated, nil
}

// AddMembers merges new members into the group, marks each member's newest
// screening as group-owned, and wires those screenings into the group's
// screening aggregate.
func (c *Controller) AddMembers(ctx context.Context, actor, groupID primitive.ObjectID, members []primitive.ObjectID) (*models.Group, error) {
	if len(members) == 0 {
		return nil, apperr.New(apperr.Validation, "Group Members Reference is Empty")
	}

	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(group.Members) == group.MemberCount {
		return nil, apperr.New(apperr.Conflict, "Number of Members Exceeded!")
	}

	merged := mergeIDs(group.Members, members)
	if len(merged) > group.MemberCount {
		return nil, apperr.New(apperr.Conflict, "Number of Members Exceeded!")
	}

	screening, err := c.Stages.LatestByGroup(ctx, status.StageScreening, group.ID)
	if err != nil {
		return nil, err
	}
	if screening == nil {
		return nil, apperr.New(apperr.NotFound, "Group Screening Does Not Exist")
	}

	entries := screening.Members
	for _, member := range merged {
		if err := c.Clients.SetForGroup(ctx, member, true); err != nil {
			return nil, err
		}
		app, err := c.Apps.LatestByClient(ctx, status.StageScreening, member)
		if err != nil {
			return nil, err
		}
		if app == nil {
			continue
		}
		if err := c.Apps.SetForGroup(ctx, status.StageScreening, app.Ref, true); err != nil {
			return nil, err
		}
		entries = mergeEntries(entries, models.MemberEntry{Client: member, Ref: app.Ref, Status: app.Status})
	}
	if _, err := c.Stages.SetMembers(ctx, status.StageScreening, screening.ID, entries, screening.Status); err != nil {
		return nil, err
	}

	updated, err := c.Groups.UpdateMembers(ctx, group.ID, merged)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, "group_update_members", actor, fmt.Sprintf("Update Members for %s", group.Name))
	return updated, nil
}

// AddLeader sets the group leader. The leader must already be a member.
func (c *Controller) AddLeader(ctx context.Context, actor, groupID, leader primitive.ObjectID) (*models.Group, error) {
	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(leader) {
		return nil, apperr.New(apperr.Validation, "Group Leader must be a member of the group")
	}
	updated, err := c.Groups.UpdateLeader(ctx, group.ID, leader)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, "group_update_leader", actor, fmt.Sprintf("Update Leader for %s", group.Name))
	return updated, nil
}

// InitializeLoan opens the loan application stage for the group's active
// cycle: gate check, ledger check, group loan aggregate creation, then one
// loan application per member created sequentially upstream.
func (c *Controller) InitializeLoan(ctx context.Context, actor, groupID primitive.ObjectID, svc LoanService) (*StageAggregate, error) {
	if svc == nil {
		svc = c.Loan
	}

	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status == status.GroupNew {
		return nil, apperr.New(apperr.Gate, "The group is in pre-screening stage. Thus loan applications can not be created.")
	}
	if err := c.gate().ValidateLoanStart(ctx, group.ID); err != nil {
		return nil, err
	}

	_, cycle, err := c.activeCycle(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if missing := missingStages(cycle, status.StageScreening); len(missing) > 0 {
		return nil, cycleInProgressErr(cycle.CycleNumber, missing)
	}
	if cycle.HasStage(string(status.StageLoan)) {
		return nil, apperr.Newf(apperr.Gate, "Loan Cycle (%d) is in progress. Move To A-CAT Application(s)", cycle.CycleNumber)
	}

	groupLoan, err := c.Stages.Create(ctx, status.StageLoan, group.ID, actor, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.Groups.UpdateStatus(ctx, group.ID, status.GroupLoanNew); err != nil {
		return nil, err
	}

	// Strictly one upstream call at a time; a mid-loop failure aborts the
	// operation without deleting the applications already created.
	var entries []models.MemberEntry
	for _, member := range group.Members {
		app, err := svc.CreateApplication(ctx, member)
		if err != nil {
			return nil, c.remapUpstream(err)
		}
		entries = append(entries, models.MemberEntry{Client: app.Client, Ref: app.ID, Status: app.Status})
	}

	updated, err := c.Stages.SetMembers(ctx, status.StageLoan, groupLoan.ID, entries, groupLoan.Status)
	if err != nil {
		return nil, err
	}
	if err := c.Ledger.AttachStage(ctx, group.ID, status.StageLoan, groupLoan.ID, actor); err != nil {
		return nil, err
	}

	c.Audit.Track(ctx, "initialize_group_loan", actor, fmt.Sprintf("Initialize Loans for %s", group.Name))
	return updated, nil
}

// InitializeACAT opens the ACAT stage with an empty member set; member
// appraisals are added one by one through InitializeMemberACAT.
func (c *Controller) InitializeACAT(ctx context.Context, actor, groupID primitive.ObjectID) (*StageAggregate, error) {
	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status == status.GroupNew {
		return nil, apperr.New(apperr.Gate, "The group is in pre-screening stage. Thus A-CAT evalaution can not be started.")
	}
	if err := c.gate().ValidateACATStart(ctx, group.ID); err != nil {
		return nil, err
	}

	_, cycle, err := c.activeCycle(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if missing := missingStages(cycle, status.StageScreening, status.StageLoan); len(missing) > 0 {
		return nil, cycleInProgressErr(cycle.CycleNumber, missing)
	}
	if cycle.HasStage(string(status.StageACAT)) {
		return nil, apperr.Newf(apperr.Gate, "Loan Cycle (%d) is in progress.", cycle.CycleNumber)
	}

	groupACAT, err := c.Stages.Create(ctx, status.StageACAT, group.ID, actor, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.Groups.UpdateStatus(ctx, group.ID, status.GroupACATNew); err != nil {
		return nil, err
	}
	if err := c.Ledger.AttachStage(ctx, group.ID, status.StageACAT, groupACAT.ID, actor); err != nil {
		return nil, err
	}

	c.Audit.Track(ctx, "create_group_acat", actor, fmt.Sprintf("Create Group ACAT for %s", group.Name))
	return groupACAT, nil
}

// InitializeMemberACAT creates one member's appraisal upstream and folds it
// into the cycle's ACAT aggregate, moving both the aggregate and the group
// to in-progress.
func (c *Controller) InitializeMemberACAT(ctx context.Context, actor, groupID primitive.ObjectID, req stagesvc.MemberACATRequest, svc ACATService) (*StageAggregate, error) {
	if svc == nil {
		svc = c.ACAT
	}

	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(req.Client) {
		return nil, apperr.New(apperr.Validation, "Client is not a member of the group")
	}

	_, cycle, err := c.activeCycle(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if cycle.ACAT.IsZero() {
		return nil, apperr.New(apperr.NotFound, "Group ACAT is not yet created.")
	}
	groupACAT, err := c.Stages.GetByID(ctx, status.StageACAT, cycle.ACAT)
	if err != nil {
		return nil, err
	}
	if groupACAT == nil {
		return nil, apperr.New(apperr.NotFound, "Group ACAT is not yet created.")
	}

	app, err := svc.InitializeClientACAT(ctx, req)
	if err != nil {
		return nil, c.remapUpstream(err)
	}
	c.Audit.Track(ctx, "initialize_member_acat", actor, fmt.Sprintf("Initialize For - %s", req.Client.Hex()))

	entries := mergeEntries(groupACAT.Members, models.MemberEntry{Client: app.Client, Ref: app.ID, Status: app.Status})
	updated, err := c.Stages.SetMembers(ctx, status.StageACAT, groupACAT.ID, entries, status.ACATInProgress)
	if err != nil {
		return nil, err
	}
	if _, err := c.Groups.UpdateStatus(ctx, group.ID, status.GroupACATInProgress); err != nil {
		return nil, err
	}
	return updated, nil
}

// SubmitStage reduces the stage's member statuses and, when the reduction
// flags it, raises an approval or review task for the group creator.
func (c *Controller) SubmitStage(ctx context.Context, actor, groupID primitive.ObjectID, stage status.Stage) (*StageAggregate, error) {
	group, agg, outcome, err := c.reduceStage(ctx, groupID, stage)
	if err != nil {
		return nil, err
	}

	switch {
	case outcome.Flags.AllSubmitted:
		err = c.raiseTask(ctx, actor, group, agg, stage, models.TaskApprove)
	case outcome.Flags.ForReview:
		err = c.raiseTask(ctx, actor, group, agg, stage, models.TaskReview)
	}
	if err != nil {
		return nil, err
	}

	updated, err := c.persistOutcome(ctx, group, agg, stage, outcome)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, fmt.Sprintf("group_%s_submit", stage), actor, fmt.Sprintf("Submit %s for %s", stage.Label(), agg.ID.Hex()))
	return updated, nil
}

// ApproveStage reduces the stage's member statuses after an approver's
// decisions and persists the result.
func (c *Controller) ApproveStage(ctx context.Context, actor, groupID primitive.ObjectID, stage status.Stage) (*StageAggregate, error) {
	group, agg, outcome, err := c.reduceStage(ctx, groupID, stage)
	if err != nil {
		return nil, err
	}
	updated, err := c.persistOutcome(ctx, group, agg, stage, outcome)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, fmt.Sprintf("group_%s_approve", stage), actor, fmt.Sprintf("Approve %s for %s", stage.Label(), agg.ID.Hex()))
	return updated, nil
}

// RefreshStageStatus recomputes the stage and group statuses from the
// current member statuses. Running it twice without an intervening member
// change yields the same result.
func (c *Controller) RefreshStageStatus(ctx context.Context, actor, groupID primitive.ObjectID, stage status.Stage) (*StageAggregate, error) {
	group, agg, outcome, err := c.reduceStage(ctx, groupID, stage)
	if err != nil {
		return nil, err
	}
	updated, err := c.persistOutcome(ctx, group, agg, stage, outcome)
	if err != nil {
		return nil, err
	}
	c.Audit.Track(ctx, fmt.Sprintf("group_%s_status_update", stage), actor, fmt.Sprintf("Update Status of %s for %s", stage.Label(), agg.ID.Hex()))
	return updated, nil
}

// reduceStage loads the group and its newest stage aggregate, fetches the
// fresh member statuses, and runs the reducer.
func (c *Controller) reduceStage(ctx context.Context, groupID primitive.ObjectID, stage status.Stage) (*models.Group, *StageAggregate, Outcome, error) {
	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, nil, Outcome{}, err
	}
	agg, err := c.Stages.LatestByGroup(ctx, stage, group.ID)
	if err != nil {
		return nil, nil, Outcome{}, err
	}
	if agg == nil {
		return nil, nil, Outcome{}, apperr.Newf(apperr.NotFound, "Group %s Does Not Exist", stage.Label())
	}
	if len(agg.Members) == 0 {
		return nil, nil, Outcome{}, apperr.Newf(apperr.Conflict, "No %s Applications Present!", stage.Label())
	}

	refs := make([]primitive.ObjectID, len(agg.Members))
	for i, m := range agg.Members {
		refs[i] = m.Ref
	}
	statuses, err := c.Apps.Statuses(ctx, stage, refs)
	if err != nil {
		return nil, nil, Outcome{}, err
	}
	for i := range agg.Members {
		agg.Members[i].Status = statuses[i]
	}
	return group, agg, Reduce(stage, statuses), nil
}

// persistOutcome writes the reduced statuses to the stage aggregate and the
// group, in that order.
func (c *Controller) persistOutcome(ctx context.Context, group *models.Group, agg *StageAggregate, stage status.Stage, outcome Outcome) (*StageAggregate, error) {
	updated, err := c.Stages.SetMembers(ctx, stage, agg.ID, agg.Members, outcome.StageStatus)
	if err != nil {
		return nil, err
	}
	if _, err := c.Groups.UpdateStatus(ctx, group.ID, outcome.GroupStatus); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Controller) raiseTask(ctx context.Context, actor primitive.ObjectID, group *models.Group, agg *StageAggregate, stage status.Stage, kind string) error {
	verb := "Submitted"
	notice := fmt.Sprintf("%s Group %s Application Submitted Ready For Approval", group.Name, stageNoun(stage))
	if kind == models.TaskReview {
		verb = "Review"
		notice = fmt.Sprintf("%s Group %s Application Submitted Review", group.Name, stageNoun(stage))
	}

	task, err := c.Tasks.CreateTask(ctx, &models.Task{
		Task:       fmt.Sprintf("%s Group %s Application %s", group.Name, stageNoun(stage), verb),
		TaskType:   kind,
		Entity:     agg.ID,
		EntityType: stageEntityType(stage),
		CreatedBy:  actor,
		User:       group.CreatedBy,
		Branch:     group.Branch,
		Comment:    "None",
	})
	if err != nil {
		return err
	}
	_, err = c.Tasks.Notify(ctx, &models.Notification{
		User:       actor,
		Message:    notice,
		Entity:     agg.ID,
		EntityType: stageEntityType(stage),
		TaskRef:    task.ID,
	})
	return err
}

// RefreshPaymentStatus folds the members' payment statuses into the group
// status and rolls the proposal amounts into the group and cycle totals.
// A member set that cannot be classified leaves the group unchanged.
func (c *Controller) RefreshPaymentStatus(ctx context.Context, actor, groupID primitive.ObjectID) (*models.Group, error) {
	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(group.Members))
	granted := money.Zero
	paid := money.Zero
	for _, member := range group.Members {
		client, err := c.Clients.Get(ctx, member)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, apperr.New(apperr.NotFound, "Client Does Not Exist")
		}
		statuses = append(statuses, client.Status)

		proposal, err := c.Proposals.LatestByClient(ctx, member)
		if err != nil {
			return nil, err
		}
		if proposal == nil {
			return nil, apperr.New(apperr.NotFound, "Client Has No Loan Proposal")
		}
		granted = granted.Add(proposal.ApprovedAmount)
		if client.Status == status.MemberLoanPaid {
			// Members pay back the granted amount.
			paid = paid.Add(proposal.ApprovedAmount)
		}
	}

	groupStatus, ok := ReducePayment(statuses)
	if !ok {
		c.log().Debug("payment statuses unclassifiable, group left unchanged",
			zap.String("group", group.ID.Hex()))
		return group, nil
	}

	var updated *models.Group
	switch groupStatus {
	case status.GroupLoanGranted, status.GroupAppraisalInProgress:
		updated, err = c.Groups.UpdateStatusGranted(ctx, group.ID, groupStatus, granted)
		if err != nil {
			return nil, err
		}
		if err := c.Ledger.RecordAmount(ctx, group.ID, updated.LoanCycle, AmountGranted, granted); err != nil {
			return nil, err
		}
	case status.GroupLoanPaid, status.GroupPaymentInProgress:
		updated, err = c.Groups.UpdateStatusPaid(ctx, group.ID, groupStatus, paid)
		if err != nil {
			return nil, err
		}
		if err := c.Ledger.RecordAmount(ctx, group.ID, updated.LoanCycle, AmountPaid, paid); err != nil {
			return nil, err
		}
	}

	c.Audit.Track(ctx, "group_status_update", actor, fmt.Sprintf("Update status of group - %s", group.Name))
	return updated, nil
}

// CloseLoanPayment is the explicit loan_paid override: it bypasses the
// payment reducer, marks the group and every member paid, and records the
// granted amount as paid in the active cycle.
func (c *Controller) CloseLoanPayment(ctx context.Context, actor, groupID primitive.ObjectID) (*models.Group, error) {
	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	switch {
	case group.Status == status.GroupACATAuthorized:
		return nil, apperr.New(apperr.Conflict, "Loan is not yet granted to all or some of the members.")
	case group.Status == status.GroupLoanPaid:
		return nil, apperr.New(apperr.Conflict, "All members of this group paid their loans, and status can not be modified")
	case group.Status != status.GroupLoanGranted && group.Status != status.GroupPaymentInProgress:
		return nil, apperr.New(apperr.Conflict, "The group loan appraisal process is not yet completed.")
	}

	updated, err := c.Groups.UpdateStatusPaid(ctx, group.ID, status.GroupLoanPaid, group.TotalGranted)
	if err != nil {
		return nil, err
	}
	for _, member := range group.Members {
		if err := c.Clients.SetStatus(ctx, member, status.MemberLoanPaid); err != nil {
			return nil, err
		}
	}
	if err := c.Ledger.RecordAmount(ctx, group.ID, group.LoanCycle, AmountPaid, group.TotalGranted); err != nil {
		return nil, err
	}

	c.Audit.Track(ctx, "group_status_update", actor, fmt.Sprintf("Close loan payment for group - %s", group.Name))
	return updated, nil
}

// StartScreeningCycle begins the next loan cycle: the current cycle must be
// fully closed and paid, the prior cycle's member screenings seed fresh
// upstream screenings, and the ledger advances by one cycle.
func (c *Controller) StartScreeningCycle(ctx context.Context, actor, groupID primitive.ObjectID, total money.Amount, svc ScreeningService) (*StageAggregate, error) {
	if svc == nil {
		svc = c.Screening
	}
	if total.IsZero() {
		return nil, apperr.New(apperr.Validation, "Total amount is not provided.")
	}

	group, err := c.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	lastScreening, err := c.gate().ValidateNewCycle(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	_, cycle, err := c.activeCycle(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if missing := missingStages(cycle, status.StageScreening, status.StageLoan, status.StageACAT); len(missing) > 0 {
		return nil, cycleInProgressErr(cycle.CycleNumber, missing)
	}

	if group.Status != status.GroupLoanPaid {
		switch group.Status {
		case status.GroupACATAuthorized:
			return nil, apperr.New(apperr.Gate, "Loan is not even granted for the current loan cycle and thus new loan cycle can not be started.")
		case status.GroupAppraisalInProgress:
			return nil, apperr.New(apperr.Gate, "Loan appraisal is not completed for the current loan cycle and thus new loan cycle can not be started")
		case status.GroupLoanGranted, status.GroupPaymentInProgress:
			return nil, apperr.New(apperr.Gate, "The current loan is not paid fully and thus new loan cycle can not be started.")
		}
	}

	var entries []models.MemberEntry
	for _, prior := range lastScreening.Screenings {
		app, err := svc.CreateScreening(ctx, prior.Client, prior.Ref)
		if err != nil {
			return nil, c.remapUpstream(err)
		}
		entries = append(entries, models.MemberEntry{Client: app.Client, Ref: app.ID, Status: app.Status})
	}

	screening, err := c.Stages.Create(ctx, status.StageScreening, group.ID, actor, entries)
	if err != nil {
		return nil, err
	}
	if _, err := c.Groups.BeginCycle(ctx, group.ID, total); err != nil {
		return nil, err
	}
	if _, err := c.Ledger.AdvanceCycle(ctx, group.ID, screening.ID, total, actor); err != nil {
		return nil, err
	}

	c.Audit.Track(ctx, "create_group_screening", actor, fmt.Sprintf("Start new loan cycle for %s", group.Name))
	return screening, nil
}

// remapUpstream converts a kinded stage-service error into the message the
// API reports for that situation.
func (c *Controller) remapUpstream(err error) error {
	var uerr *stagesvc.Err
	if !errors.As(err, &uerr) {
		return apperr.Wrap(apperr.Upstream, "stage service request failed", err)
	}

	switch uerr.Kind {
	case stagesvc.KindNoApplication:
		return apperr.Wrap(apperr.Upstream, "One of the members has no loan application.", err)
	case stagesvc.KindNoPriorScreening:
		return apperr.Wrap(apperr.Upstream, "The member has no screening yet and A-CAT processing can not be started.", err)
	case stagesvc.KindScreeningInProgress:
		return apperr.Wrap(apperr.Upstream, "The member has a screening in progress and A-CAT processing can not be started.", err)
	case stagesvc.KindLoanInProgress:
		return apperr.Wrap(apperr.Upstream, "The member has a loan application in progress and A-CAT processing can not be started.", err)
	case stagesvc.KindApplicationInProgress:
		return apperr.Wrap(apperr.Upstream, "The member has an A-CAT application which is in progress.", err)
	}
	return apperr.Wrap(apperr.Upstream, uerr.Message, err)
}

func stageNoun(stage status.Stage) string {
	switch stage {
	case status.StageScreening:
		return "Screenings"
	case status.StageLoan:
		return "Loans"
	case status.StageACAT:
		return "ACATs"
	}
	return stage.Label()
}

func stageEntityType(stage status.Stage) string {
	switch stage {
	case status.StageScreening:
		return "group_screening"
	case status.StageLoan:
		return "group_loan"
	case status.StageACAT:
		return "group_acat"
	}
	return string(stage)
}

func mergeIDs(existing, added []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(existing)+len(added))
	merged := make([]primitive.ObjectID, 0, len(existing)+len(added))
	for _, id := range existing {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	for _, id := range added {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

func mergeEntries(entries []models.MemberEntry, entry models.MemberEntry) []models.MemberEntry {
	for i, e := range entries {
		if e.Ref == entry.Ref {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}
