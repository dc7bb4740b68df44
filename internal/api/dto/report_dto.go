package dto

import (
	"time"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// SubmitReportRequest payload.
type SubmitReportRequest struct {
	Category       domain.Category `json:"category"`
	Block          *string         `json:"block"`
	Room           *string         `json:"room"`
	LocationDetail *string         `json:"location_detail"`
	Equipment      string          `json:"equipment"`
	Problem        string          `json:"problem"`
}

// ApproveRequest payload.
type ApproveRequest struct {
	Priority domain.Priority `json:"priority"`
}

// RejectRequest payload.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CompleteRequest payload.
type CompleteRequest struct {
	Notes            string `json:"notes"`
	PartsUsed        string `json:"parts_used"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// RateRequest payload.
type RateRequest struct {
	Rating          int    `json:"rating"`
	Feedback        string `json:"feedback"`
	MarkStillBroken bool   `json:"mark_still_broken"`
}

// ReportSummary response.
type ReportSummary struct {
	ID             string              `json:"id"`
	TicketCode     string              `json:"ticket_code"`
	Category       domain.Category     `json:"category"`
	Block          *string             `json:"block"`
	Room           *string             `json:"room"`
	LocationDetail *string             `json:"location_detail"`
	Equipment      string              `json:"equipment"`
	Problem        string              `json:"problem"`
	Status         domain.ReportStatus `json:"status"`
	Priority       *domain.Priority    `json:"priority"`
	SubmitterID    string              `json:"submitter_id"`
	AssigneeID     *string             `json:"assignee_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// SLAWindowResponse reports a live deadline.
type SLAWindowResponse struct {
	Deadline         time.Time `json:"deadline"`
	RemainingMinutes int64     `json:"remaining_minutes"`
	Overdue          bool      `json:"overdue"`
}

// ReportDetailResponse provides full report info.
type ReportDetailResponse struct {
	ReportSummary
	RejectionReason  *string            `json:"rejection_reason,omitempty"`
	CompletionNotes  *string            `json:"completion_notes,omitempty"`
	PartsUsed        *string            `json:"parts_used,omitempty"`
	TimeSpentMinutes *int               `json:"time_spent_minutes,omitempty"`
	Rating           *int               `json:"rating,omitempty"`
	Feedback         *string            `json:"feedback,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	SLA              *SLAWindowResponse `json:"sla,omitempty"`
}

// HistoryEntryResponse is one step of the workflow timeline.
type HistoryEntryResponse struct {
	Seq        int                 `json:"seq"`
	FromStatus domain.ReportStatus `json:"from_status"`
	ToStatus   domain.ReportStatus `json:"to_status"`
	Action     string              `json:"action"`
	ActorID    string              `json:"actor_id"`
	Detail     *string             `json:"detail,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// DuplicateCandidateResponse is one suspected-duplicate match.
type DuplicateCandidateResponse struct {
	ReportID   string              `json:"report_id"`
	TicketCode string              `json:"ticket_code"`
	Status     domain.ReportStatus `json:"status"`
	Score      float64             `json:"score"`
}

// SubmitReportResponse wraps the created report with the advisory scan.
type SubmitReportResponse struct {
	Report           ReportSummary                `json:"report"`
	Duplicates       []DuplicateCandidateResponse `json:"duplicates,omitempty"`
	DuplicateWarning string                       `json:"duplicate_warning,omitempty"`
}

// NotificationResponse is one inbox row.
type NotificationResponse struct {
	ID        string                      `json:"id"`
	ReportID  string                      `json:"report_id"`
	EventType string                      `json:"event_type"`
	Severity  domain.NotificationSeverity `json:"severity"`
	Message   string                      `json:"message"`
	Read      bool                        `json:"read"`
	CreatedAt time.Time                   `json:"created_at"`
}
