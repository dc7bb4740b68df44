package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/duplicate"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/repository"
	"github.com/aastu-platform/facility-reports/internal/sla"
	"github.com/aastu-platform/facility-reports/internal/ticketcode"
	"github.com/aastu-platform/facility-reports/internal/workflow"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

var (
	reporter = domain.User{ID: "user-reporter", Name: "Abeba", Role: domain.RoleReporter, Active: true}
	otherRep = domain.User{ID: "user-other", Name: "Kidist", Role: domain.RoleReporter, Active: true}
	coord    = domain.User{ID: "user-coord", Name: "Mulu", Role: domain.RoleCoordinator, Active: true}
	fixer    = domain.User{ID: "user-fixer", Name: "Samuel", Role: domain.RoleFixer, Active: true, Specialization: specPtr(domain.SpecializationElectrical)}
)

func specPtr(s domain.Specialization) *domain.Specialization { return &s }

func strPtr(s string) *string { return &s }

type serviceFixture struct {
	svc        *ReportService
	reports    *fakeReportRepo
	history    *fakeHistoryRepo
	dispatcher *capturingDispatcher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	reports := newFakeReportRepo()
	history := reports.history
	users := &fakeUserRepo{users: map[string]domain.User{
		reporter.ID: reporter,
		otherRep.ID: otherRep,
		coord.ID:    coord,
		fixer.ID:    fixer,
	}}
	dispatcher := &capturingDispatcher{}
	svc := NewReportService(ReportDependencies{
		ReportRepo:  reports,
		HistoryRepo: history,
		UserRepo:    users,
		Engine:      workflow.NewEngine(),
		Detector:    duplicate.NewDetector(duplicate.DefaultConfig()),
		Policy:      sla.NewPolicy(nil),
		Codes:       ticketcode.NewGenerator(nil, zap.NewNop()),
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return &serviceFixture{svc: svc, reports: reports, history: history, dispatcher: dispatcher}
}

func electricalSubmission() SubmitInput {
	return SubmitInput{
		Category:  domain.CategoryElectrical,
		Block:     strPtr("57"),
		Room:      strPtr("312"),
		Equipment: "ceiling fan",
		Problem:   "fan wobbles badly and makes loud grinding noise",
	}
}

func TestSubmitCreatesReport(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.Submit(context.Background(), &reporter, electricalSubmission())
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, domain.StatusSubmitted, report.Status)
	assert.Equal(t, reporter.ID, report.SubmitterID)
	assert.Regexp(t, regexp.MustCompile(`^AASTU-ELEC-\d{8}-[0-9A-F]{6}$`), report.TicketCode)
	assert.Nil(t, report.Priority)
	assert.Empty(t, result.Duplicates)

	entries, err := f.svc.ListHistory(context.Background(), &reporter, report.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, workflow.ActionSubmit, entries[0].Action)
	assert.Equal(t, domain.StatusSubmitted, entries[0].ToStatus)

	created := f.dispatcher.ofType(events.EventReportCreated)
	require.Len(t, created, 1)
	payload := created[0].Payload.(events.ReportCreatedPayload)
	assert.Equal(t, report.TicketCode, payload.TicketCode)
}

func TestSubmitValidation(t *testing.T) {
	f := newServiceFixture(t)

	input := electricalSubmission()
	input.Problem = "  "
	input.Block = nil
	input.LocationDetail = nil

	_, err := f.svc.Submit(context.Background(), &reporter, input)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	domainErr := apperrors.ToDomainError(err)
	assert.Contains(t, domainErr.Details, "problem")
	assert.Contains(t, domainErr.Details, "location")
}

func TestSubmitFlagsDuplicates(t *testing.T) {
	f := newServiceFixture(t)

	first, err := f.svc.Submit(context.Background(), &reporter, electricalSubmission())
	require.NoError(t, err)

	second, err := f.svc.Submit(context.Background(), &otherRep, electricalSubmission())
	require.NoError(t, err)

	require.Len(t, second.Duplicates, 1)
	assert.Equal(t, first.Report.ID, second.Duplicates[0].ReportID)
	assert.GreaterOrEqual(t, second.Duplicates[0].Score, 0.8)
	assert.Contains(t, second.DuplicateWarning, first.Report.TicketCode)

	// advisory only: the submission still went through
	assert.Equal(t, domain.StatusSubmitted, second.Report.Status)

	suspected := f.dispatcher.ofType(events.EventReportDuplicateSuspected)
	require.Len(t, suspected, 1)
}

func TestCompletedReportStillFlagsDuplicates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := first.Report.ID

	_, err = f.svc.StartReview(ctx, &coord, id)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, &coord, id, domain.PriorityHigh)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, &coord, id, fixer.ID)
	require.NoError(t, err)
	_, err = f.svc.StartWork(ctx, &fixer, id)
	require.NoError(t, err)
	report, err := f.svc.Complete(ctx, &fixer, id, workflow.CompletionInput{
		Notes:            "tightened mounting bracket",
		TimeSpentMinutes: 20,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, report.Status)

	// completed but unrated still describes a live issue, so a fresh
	// submission for the same fault gets warned about it
	second, err := f.svc.Submit(ctx, &otherRep, electricalSubmission())
	require.NoError(t, err)
	require.Len(t, second.Duplicates, 1)
	assert.Equal(t, id, second.Duplicates[0].ReportID)
}

func TestLifecycleThroughService(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	report, err := f.svc.StartReview(ctx, &coord, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, report.Status)

	report, err = f.svc.Approve(ctx, &coord, id, domain.PriorityHigh)
	require.NoError(t, err)
	require.NotNil(t, report.Priority)
	assert.Equal(t, domain.PriorityHigh, *report.Priority)

	report, err = f.svc.Assign(ctx, &coord, id, fixer.ID)
	require.NoError(t, err)
	require.NotNil(t, report.AssigneeID)
	assert.Equal(t, fixer.ID, *report.AssigneeID)

	report, err = f.svc.StartWork(ctx, &fixer, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, report.Status)

	report, err = f.svc.Complete(ctx, &fixer, id, workflow.CompletionInput{
		Notes:            "rebalanced blades, replaced worn bearing",
		PartsUsed:        "bearing 6202",
		TimeSpentMinutes: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, report.Status)
	require.NotNil(t, report.CompletedAt)

	report, err = f.svc.Rate(ctx, &reporter, id, workflow.RatingInput{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, report.Status)

	entries, err := f.svc.ListHistory(ctx, &coord, id)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Seq)
	}

	transitioned := f.dispatcher.ofType(events.EventReportTransitioned)
	assert.Len(t, transitioned, 6)
}

func TestTransitionVersionConflict(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)

	f.reports.failUpdate = repository.ErrVersionConflict
	_, err = f.svc.StartReview(ctx, &coord, result.Report.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestTransitionFailsWhenHistoryWriteFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	f.history.failAppend = errors.New("history insert failed")
	_, err = f.svc.StartReview(ctx, &coord, id)
	require.Error(t, err)
	f.history.failAppend = nil

	// the state change and the audit row commit together or not at all
	detail, err := f.svc.GetReport(ctx, &coord, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, detail.Report.Status)
	assert.Equal(t, int64(1), detail.Report.Version)

	entries, err := f.svc.ListHistory(ctx, &coord, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmitFailsWhenHistoryWriteFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.history.failAppend = errors.New("history insert failed")
	_, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.Error(t, err)

	assert.Empty(t, f.reports.reports)
	assert.Empty(t, f.dispatcher.ofType(events.EventReportCreated))
}

func TestTransitionGuardLeavesStateUntouched(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	// approve straight from SUBMITTED is not in the table
	_, err = f.svc.Approve(ctx, &coord, id, domain.PriorityLow)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIllegalTransition))

	detail, err := f.svc.GetReport(ctx, &coord, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, detail.Report.Status)
	assert.Equal(t, int64(1), detail.Report.Version)

	entries, err := f.svc.ListHistory(ctx, &coord, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAssignUnknownAssignee(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	_, err = f.svc.StartReview(ctx, &coord, id)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, &coord, id, domain.PriorityMedium)
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, &coord, id, "user-missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestVisibilityScoping(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	// another reporter may not read it
	_, err = f.svc.GetReport(ctx, &otherRep, id)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodePermissionDenied, domainErr.Code)
	assert.Equal(t, "not_owner", domainErr.Details["reason"])

	// an unassigned fixer may not read it either
	_, err = f.svc.GetReport(ctx, &fixer, id)
	require.Error(t, err)

	// coordinator sees everything
	_, err = f.svc.GetReport(ctx, &coord, id)
	require.NoError(t, err)

	// listing is scoped per role
	mine, err := f.svc.ListReports(ctx, &reporter, ReportListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	others, err := f.svc.ListReports(ctx, &otherRep, ReportListFilter{})
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestGetReportIncludesSLAWindow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, &reporter, electricalSubmission())
	require.NoError(t, err)
	id := result.Report.ID

	detail, err := f.svc.GetReport(ctx, &reporter, id)
	require.NoError(t, err)
	assert.Nil(t, detail.SLA, "no window before priority is set")

	_, err = f.svc.StartReview(ctx, &coord, id)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, &coord, id, domain.PriorityLow)
	require.NoError(t, err)

	detail, err = f.svc.GetReport(ctx, &reporter, id)
	require.NoError(t, err)
	require.NotNil(t, detail.SLA)
	assert.False(t, detail.SLA.Overdue)
	assert.WithinDuration(t, detail.Report.CreatedAt.Add(72*time.Hour), detail.SLA.Deadline, time.Second)
}
