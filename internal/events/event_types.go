package events

import (
	"time"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated            EventType = "report.created"
	EventReportTransitioned       EventType = "report.transitioned"
	EventReportSLAViolated        EventType = "report.sla_violated"
	EventReportDuplicateSuspected EventType = "report.duplicate_suspected"
)

// Event represents a domain event emitted by the lifecycle engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ReportID  string      `json:"report_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	TicketCode  string          `json:"ticket_code"`
	Category    domain.Category `json:"category"`
	SubmitterID string          `json:"submitter_id"`
	Location    string          `json:"location,omitempty"`
}

// ReportTransitionedPayload payload.
type ReportTransitionedPayload struct {
	From        domain.ReportStatus `json:"from"`
	To          domain.ReportStatus `json:"to"`
	Action      string              `json:"action"`
	Detail      string              `json:"detail,omitempty"`
	TicketCode  string              `json:"ticket_code"`
	SubmitterID string              `json:"submitter_id"`
	AssigneeID  *string             `json:"assignee_id,omitempty"`
}

// SLAViolatedPayload payload.
type SLAViolatedPayload struct {
	TicketCode     string                      `json:"ticket_code"`
	Priority       domain.Priority             `json:"priority"`
	Severity       domain.NotificationSeverity `json:"severity"`
	Deadline       time.Time                   `json:"deadline"`
	OverdueMinutes int64                       `json:"overdue_minutes"`
	SubmitterID    string                      `json:"submitter_id"`
	AssigneeID     *string                     `json:"assignee_id,omitempty"`
}

// DuplicateSuspectedPayload payload.
type DuplicateSuspectedPayload struct {
	Count          int     `json:"count"`
	TopTicketCode  string  `json:"top_ticket_code"`
	TopScore       float64 `json:"top_score"`
	WarningMessage string  `json:"warning_message"`
	SubmitterID    string  `json:"submitter_id"`
}
