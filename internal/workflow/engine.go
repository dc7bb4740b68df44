// Package workflow is the sole authority for report status transitions. Every
// operation validates the transition table and its guards against an in-memory
// report, mutates it on success and describes the applied transition so the
// caller can persist state and audit history atomically. Illegal attempts
// leave the report untouched and surface a typed error.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/aastu-platform/facility-reports/internal/domain"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// Action names recorded in workflow history entries.
const (
	ActionSubmit      = "submit"
	ActionStartReview = "start_review"
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionAssign      = "assign"
	ActionStartWork   = "start_work"
	ActionComplete    = "complete"
	ActionRate        = "rate"
)

// Transition describes one accepted state change.
type Transition struct {
	From   domain.ReportStatus
	To     domain.ReportStatus
	Action string
	Detail string
}

var allowedTransitions = map[domain.ReportStatus][]domain.ReportStatus{
	domain.StatusSubmitted:   {domain.StatusUnderReview},
	domain.StatusUnderReview: {domain.StatusApproved, domain.StatusRejected},
	domain.StatusApproved:    {domain.StatusAssigned},
	domain.StatusAssigned:    {domain.StatusInProgress},
	domain.StatusInProgress:  {domain.StatusCompleted},
	domain.StatusCompleted:   {domain.StatusClosed, domain.StatusUnderReview, domain.StatusReopened},
	domain.StatusClosed:      {},
	domain.StatusRejected:    {},
	domain.StatusReopened:    {domain.StatusUnderReview},
}

// Engine applies and validates workflow transitions.
type Engine struct {
	minFeedback int
	now         func() time.Time
}

// NewEngine constructs an engine with the default rating rules.
func NewEngine() *Engine {
	return &Engine{minFeedback: MinFeedbackLength, now: time.Now}
}

// CompletionInput carries the fixer's completion record.
type CompletionInput struct {
	Notes            string
	PartsUsed        string
	TimeSpentMinutes int
}

// Submit places a freshly constructed report into the initial state. The
// submitted state is set exactly once at creation and never re-entered.
func (e *Engine) Submit(report *domain.Report, actor *domain.User) (Transition, error) {
	if actor.Role != domain.RoleReporter {
		return Transition{}, apperrors.NewWrongRole("only reporters can submit facility reports")
	}
	if report.Status != "" && report.Status != domain.StatusSubmitted {
		return Transition{}, apperrors.NewIllegalTransition("report already submitted", map[string]any{"status": report.Status})
	}
	report.Status = domain.StatusSubmitted
	report.SubmitterID = actor.ID
	return Transition{From: "", To: domain.StatusSubmitted, Action: ActionSubmit}, nil
}

// StartReview moves a submitted report into review.
func (e *Engine) StartReview(report *domain.Report, actor *domain.User) (Transition, error) {
	if !actor.CanReview() {
		return Transition{}, apperrors.NewWrongRole("review requires coordinator role")
	}
	if err := e.checkTable(report, domain.StatusUnderReview, ActionStartReview); err != nil {
		return Transition{}, err
	}
	return e.apply(report, domain.StatusUnderReview, ActionStartReview, ""), nil
}

// Approve accepts a report under review and fixes its priority. Priority is
// set no earlier than this transition.
func (e *Engine) Approve(report *domain.Report, actor *domain.User, priority domain.Priority) (Transition, error) {
	if !actor.CanReview() {
		return Transition{}, apperrors.NewWrongRole("approval requires coordinator role")
	}
	if err := e.checkTable(report, domain.StatusApproved, ActionApprove); err != nil {
		return Transition{}, err
	}
	if !domain.ValidPriority(priority) {
		return Transition{}, apperrors.NewIllegalTransition("approval requires a priority", map[string]any{"priority": priority})
	}
	report.Priority = &priority
	return e.apply(report, domain.StatusApproved, ActionApprove, "priority="+string(priority)), nil
}

// Reject declines a report under review. A rejection reason is mandatory.
func (e *Engine) Reject(report *domain.Report, actor *domain.User, reason string) (Transition, error) {
	if !actor.CanReview() {
		return Transition{}, apperrors.NewWrongRole("rejection requires coordinator role")
	}
	if err := e.checkTable(report, domain.StatusRejected, ActionReject); err != nil {
		return Transition{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, apperrors.NewIllegalTransition("rejection requires a reason", nil)
	}
	report.RejectionReason = &reason
	return e.apply(report, domain.StatusRejected, ActionReject, reason), nil
}

// Assign hands an approved report to a fixer whose specialization matches the
// report category.
func (e *Engine) Assign(report *domain.Report, actor *domain.User, assignee *domain.User) (Transition, error) {
	if !actor.CanReview() {
		return Transition{}, apperrors.NewWrongRole("assignment requires coordinator role")
	}
	if err := e.checkTable(report, domain.StatusAssigned, ActionAssign); err != nil {
		return Transition{}, err
	}
	if assignee == nil {
		return Transition{}, apperrors.NewIllegalTransition("assignment requires an assignee", nil)
	}
	if assignee.Role != domain.RoleFixer {
		return Transition{}, apperrors.NewIllegalTransition("assignee must be a fixer", map[string]any{"assignee_id": assignee.ID})
	}
	if !assignee.Active {
		return Transition{}, apperrors.NewIllegalTransition("assignee inactive", map[string]any{"assignee_id": assignee.ID})
	}
	if assignee.Specialization == nil || !assignee.Specialization.Matches(report.Category) {
		return Transition{}, apperrors.NewIllegalTransition("assignee specialization does not match report category",
			map[string]any{"assignee_id": assignee.ID, "category": report.Category})
	}
	report.AssigneeID = &assignee.ID
	return e.apply(report, domain.StatusAssigned, ActionAssign, "assignee="+assignee.ID), nil
}

// StartWork marks the assigned fixer as actively working on the report.
func (e *Engine) StartWork(report *domain.Report, actor *domain.User) (Transition, error) {
	if actor.Role != domain.RoleFixer {
		return Transition{}, apperrors.NewWrongRole("starting work requires fixer role")
	}
	if err := e.checkTable(report, domain.StatusInProgress, ActionStartWork); err != nil {
		return Transition{}, err
	}
	if report.AssigneeID == nil || *report.AssigneeID != actor.ID {
		return Transition{}, apperrors.NewNotOwner("only the assigned fixer can start work on this report")
	}
	return e.apply(report, domain.StatusInProgress, ActionStartWork, ""), nil
}

// Complete records the fixer's completion notes and time spent, written once
// on the transition into completed.
func (e *Engine) Complete(report *domain.Report, actor *domain.User, input CompletionInput) (Transition, error) {
	if actor.Role != domain.RoleFixer {
		return Transition{}, apperrors.NewWrongRole("completion requires fixer role")
	}
	if err := e.checkTable(report, domain.StatusCompleted, ActionComplete); err != nil {
		return Transition{}, err
	}
	if report.AssigneeID == nil || *report.AssigneeID != actor.ID {
		return Transition{}, apperrors.NewNotOwner("only the assigned fixer can complete this report")
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" || input.TimeSpentMinutes <= 0 {
		return Transition{}, apperrors.NewIllegalTransition("completion requires notes and time spent",
			map[string]any{"time_spent_minutes": input.TimeSpentMinutes})
	}
	report.CompletionNotes = &notes
	if parts := strings.TrimSpace(input.PartsUsed); parts != "" {
		report.PartsUsed = &parts
	}
	minutes := input.TimeSpentMinutes
	report.TimeSpentMinutes = &minutes
	completedAt := e.now()
	report.CompletedAt = &completedAt
	return e.apply(report, domain.StatusCompleted, ActionComplete, fmt.Sprintf("time_spent=%dm", minutes)), nil
}

// Rate records the submitter's verdict on a completed report and routes it to
// closed, back to review, or reopened depending on the rating. A rating is
// written at most once per report.
func (e *Engine) Rate(report *domain.Report, actor *domain.User, input RatingInput) (Transition, error) {
	if actor.Role != domain.RoleReporter {
		return Transition{}, apperrors.NewWrongRole("only reporters can rate reports")
	}
	if report.SubmitterID != actor.ID {
		return Transition{}, apperrors.NewNotOwner("only the original submitter can rate this report")
	}
	if report.Rated() || report.Status != domain.StatusCompleted {
		return Transition{}, apperrors.NewAlreadyRated()
	}
	if err := ValidateRating(input.Rating, input.Feedback, e.minFeedback); err != nil {
		return Transition{}, err
	}

	dest := RatingDestination(input.Rating, input.MarkStillBroken)
	if err := e.checkTable(report, dest, ActionRate); err != nil {
		return Transition{}, err
	}

	rating := input.Rating
	report.Rating = &rating
	if feedback := strings.TrimSpace(input.Feedback); feedback != "" {
		report.Feedback = &feedback
	}
	report.MarkStillBroken = input.MarkStillBroken
	return e.apply(report, dest, ActionRate, fmt.Sprintf("rating=%d", rating)), nil
}

// CanTransition reports whether the (from,to) pair is in the transition table.
func CanTransition(from, to domain.ReportStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (e *Engine) checkTable(report *domain.Report, to domain.ReportStatus, action string) error {
	if !CanTransition(report.Status, to) {
		return apperrors.NewIllegalTransition(
			fmt.Sprintf("cannot %s a report in status %s", action, report.Status),
			map[string]any{"from": report.Status, "to": to},
		)
	}
	return nil
}

func (e *Engine) apply(report *domain.Report, to domain.ReportStatus, action, detail string) Transition {
	from := report.Status
	report.Status = to
	return Transition{From: from, To: to, Action: action, Detail: detail}
}
