package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/duplicate"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/observability"
	"github.com/aastu-platform/facility-reports/internal/repository"
	"github.com/aastu-platform/facility-reports/internal/sla"
	"github.com/aastu-platform/facility-reports/internal/ticketcode"
	"github.com/aastu-platform/facility-reports/internal/workflow"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// ReportService coordinates the report lifecycle: submission with duplicate
// screening, workflow transitions with an audit trail, and SLA-aware reads.
type ReportService struct {
	reports    repository.ReportRepository
	history    repository.ReportHistoryRepository
	users      repository.UserRepository
	engine     *workflow.Engine
	detector   *duplicate.Detector
	policy     *sla.Policy
	codes      *ticketcode.Generator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo  repository.ReportRepository
	HistoryRepo repository.ReportHistoryRepository
	UserRepo    repository.UserRepository
	Engine      *workflow.Engine
	Detector    *duplicate.Detector
	Policy      *sla.Policy
	Codes       *ticketcode.Generator
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    deps.ReportRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		engine:     deps.Engine,
		detector:   deps.Detector,
		policy:     deps.Policy,
		codes:      deps.Codes,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// SubmitInput describes a new report submission.
type SubmitInput struct {
	Category       domain.Category
	Block          *string
	Room           *string
	LocationDetail *string
	Equipment      string
	Problem        string
}

// SubmitResult pairs the created report with the advisory duplicate scan.
type SubmitResult struct {
	Report           *domain.Report
	Duplicates       []duplicate.Candidate
	DuplicateWarning string
}

// ReportDetail is a report plus its live SLA window, when one applies.
type ReportDetail struct {
	Report *domain.Report
	SLA    *sla.Window
}

// ReportListFilter describes caller-facing listing filters. Visibility
// scoping by role is applied on top of it.
type ReportListFilter struct {
	Statuses    []domain.ReportStatus
	Category    *domain.Category
	Block       *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// Submit validates and stores a new report, runs the advisory duplicate
// scan, and records the first history entry. Duplicate findings never block
// the submission.
func (s *ReportService) Submit(ctx context.Context, actor *domain.User, input SubmitInput) (*SubmitResult, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	report := &domain.Report{
		Category:       input.Category,
		Block:          normalizeOptional(input.Block),
		Room:           normalizeOptional(input.Room),
		LocationDetail: normalizeOptional(input.LocationDetail),
		Equipment:      strings.TrimSpace(input.Equipment),
		Problem:        strings.TrimSpace(input.Problem),
	}

	transition, err := s.engine.Submit(report, actor)
	if err != nil {
		return nil, err
	}

	duplicates, warning := s.scanForDuplicates(ctx, report)

	code, err := s.codes.Next(ctx, report.Category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report.TicketCode = code

	if err := s.reports.CreateWithHistory(ctx, report, historyEntry(transition, actor.ID)); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTransition(transition.Action, report.Status)

	s.publish(ctx, events.Event{
		Type:     events.EventReportCreated,
		ReportID: report.ID,
		ActorID:  actor.ID,
		Payload: events.ReportCreatedPayload{
			TicketCode:  report.TicketCode,
			Category:    report.Category,
			SubmitterID: report.SubmitterID,
			Location:    report.LocationLabel(),
		},
	})
	if len(duplicates) > 0 {
		s.metrics.RecordDuplicateWarning()
		s.publish(ctx, events.Event{
			Type:     events.EventReportDuplicateSuspected,
			ReportID: report.ID,
			ActorID:  actor.ID,
			Payload: events.DuplicateSuspectedPayload{
				Count:          len(duplicates),
				TopTicketCode:  duplicates[0].TicketCode,
				TopScore:       duplicates[0].Score,
				WarningMessage: warning,
				SubmitterID:    report.SubmitterID,
			},
		})
	}

	return &SubmitResult{Report: report, Duplicates: duplicates, DuplicateWarning: warning}, nil
}

// StartReview moves a submitted or reopened report into review.
func (s *ReportService) StartReview(ctx context.Context, actor *domain.User, reportID string) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.StartReview(report, actor)
	})
}

// Approve accepts a report under review, fixing its priority and starting
// the SLA clock.
func (s *ReportService) Approve(ctx context.Context, actor *domain.User, reportID string, priority domain.Priority) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.Approve(report, actor, priority)
	})
}

// Reject declines a report under review with a mandatory reason.
func (s *ReportService) Reject(ctx context.Context, actor *domain.User, reportID, reason string) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.Reject(report, actor, reason)
	})
}

// Assign hands an approved report to a fixer with a matching specialization.
func (s *ReportService) Assign(ctx context.Context, actor *domain.User, reportID, assigneeID string) (*domain.Report, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.Assign(report, actor, assignee)
	})
}

// StartWork marks an assigned report as actively being fixed.
func (s *ReportService) StartWork(ctx context.Context, actor *domain.User, reportID string) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.StartWork(report, actor)
	})
}

// Complete records the fix details and moves the report to completed.
func (s *ReportService) Complete(ctx context.Context, actor *domain.User, reportID string, input workflow.CompletionInput) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.Complete(report, actor, input)
	})
}

// Rate records the reporter's verdict on a completed fix and routes the
// report to its post-rating state.
func (s *ReportService) Rate(ctx context.Context, actor *domain.User, reportID string, input workflow.RatingInput) (*domain.Report, error) {
	return s.transition(ctx, actor, reportID, func(report *domain.Report) (workflow.Transition, error) {
		return s.engine.Rate(report, actor, input)
	})
}

// GetReport fetches a report visible to the actor, together with its SLA
// window when priority is set and the report is still open.
func (s *ReportService) GetReport(ctx context.Context, actor *domain.User, reportID string) (*ReportDetail, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(actor, report); err != nil {
		return nil, err
	}
	detail := &ReportDetail{Report: report}
	if report.IsOpen() {
		if window, ok := s.policy.Remaining(report, time.Now().UTC()); ok {
			detail.SLA = &window
		}
	}
	return detail, nil
}

// ListReports returns reports the actor may see, scoped by role: reporters
// see their own submissions, fixers their assignments, coordinators and
// admins everything.
func (s *ReportService) ListReports(ctx context.Context, actor *domain.User, filter ReportListFilter) ([]domain.Report, error) {
	repoFilter := repository.ReportFilter{
		Statuses:    filter.Statuses,
		Category:    filter.Category,
		Block:       filter.Block,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	switch actor.Role {
	case domain.RoleReporter:
		repoFilter.SubmitterID = &actor.ID
	case domain.RoleFixer:
		repoFilter.AssigneeID = &actor.ID
	}
	reports, err := s.reports.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// ListHistory returns a report's workflow timeline in order.
func (s *ReportService) ListHistory(ctx context.Context, actor *domain.User, reportID string) ([]domain.WorkflowHistoryEntry, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisibility(actor, report); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

type transitionFunc func(report *domain.Report) (workflow.Transition, error)

// transition is the shared persist path: load, run the engine step, write
// state and audit row back in one transaction under optimistic locking,
// publish.
func (s *ReportService) transition(ctx context.Context, actor *domain.User, reportID string, step transitionFunc) (*domain.Report, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	transition, err := step(report)
	if err != nil {
		return nil, err
	}

	if err := s.reports.UpdateWithHistory(ctx, report, historyEntry(transition, actor.ID)); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("report was modified concurrently, retry the operation", map[string]any{"report_id": report.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordTransition(transition.Action, report.Status)
	s.publish(ctx, events.Event{
		Type:     events.EventReportTransitioned,
		ReportID: report.ID,
		ActorID:  actor.ID,
		Payload: events.ReportTransitionedPayload{
			From:        transition.From,
			To:          transition.To,
			Action:      transition.Action,
			Detail:      transition.Detail,
			TicketCode:  report.TicketCode,
			SubmitterID: report.SubmitterID,
			AssigneeID:  report.AssigneeID,
		},
	})
	return report, nil
}

func (s *ReportService) loadReport(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("report", map[string]any{"report_id": reportID})
		}
		return nil, apperrors.MapError(err)
	}
	return report, nil
}

func (s *ReportService) checkVisibility(actor *domain.User, report *domain.Report) error {
	switch actor.Role {
	case domain.RoleCoordinator, domain.RoleAdmin:
		return nil
	case domain.RoleFixer:
		if report.AssigneeID != nil && *report.AssigneeID == actor.ID {
			return nil
		}
		return apperrors.NewNotOwner("report is not assigned to you")
	default:
		if report.SubmitterID == actor.ID {
			return nil
		}
		return apperrors.NewNotOwner("report belongs to another reporter")
	}
}

// scanForDuplicates loads recent open reports in the submission's category
// and runs the detector. Scan failures are logged, never surfaced: the
// warning is advisory.
func (s *ReportService) scanForDuplicates(ctx context.Context, report *domain.Report) ([]duplicate.Candidate, string) {
	if s.detector == nil {
		return nil, ""
	}
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.detector.TimeWindowDays())
	candidates, err := s.reports.List(ctx, repository.ReportFilter{
		Category:    &report.Category,
		Statuses:    domain.DuplicateCandidateStatuses,
		CreatedFrom: &from,
	})
	if err != nil {
		s.logger.Warn("duplicate scan skipped", zap.Error(err))
		return nil, ""
	}

	duplicates := s.detector.FindDuplicates(duplicate.Submission{
		Category:       report.Category,
		Block:          report.Block,
		LocationDetail: report.LocationDetail,
		Equipment:      report.Equipment,
		Problem:        report.Problem,
	}, candidates, now)
	if len(duplicates) == 0 {
		return nil, ""
	}
	return duplicates, duplicate.GenerateWarningMessage(duplicates)
}

// historyEntry shapes the audit row for a transition. The report id is
// filled in by the repository inside the write transaction.
func historyEntry(transition workflow.Transition, actorID string) *domain.WorkflowHistoryEntry {
	entry := &domain.WorkflowHistoryEntry{
		FromStatus: transition.From,
		ToStatus:   transition.To,
		Action:     transition.Action,
		ActorID:    actorID,
	}
	if transition.Detail != "" {
		detail := transition.Detail
		entry.Detail = &detail
	}
	return entry
}

func (s *ReportService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateSubmission(input SubmitInput) error {
	details := map[string]any{}
	if !domain.ValidCategory(input.Category) {
		details["category"] = "must be ELECTRICAL or MECHANICAL"
	}
	if strings.TrimSpace(input.Equipment) == "" {
		details["equipment"] = "required"
	}
	if strings.TrimSpace(input.Problem) == "" {
		details["problem"] = "required"
	}
	hasStructured := input.Block != nil && strings.TrimSpace(*input.Block) != ""
	hasFreeform := input.LocationDetail != nil && strings.TrimSpace(*input.LocationDetail) != ""
	if !hasStructured && !hasFreeform {
		details["location"] = "either block/room or a free-form location is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid report submission", details)
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
