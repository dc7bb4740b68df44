package domain

import "time"

// ReportStatus enumerates lifecycle states for facility reports.
type ReportStatus string

const (
	StatusSubmitted   ReportStatus = "SUBMITTED"
	StatusUnderReview ReportStatus = "UNDER_REVIEW"
	StatusApproved    ReportStatus = "APPROVED"
	StatusRejected    ReportStatus = "REJECTED"
	StatusAssigned    ReportStatus = "ASSIGNED"
	StatusInProgress  ReportStatus = "IN_PROGRESS"
	StatusCompleted   ReportStatus = "COMPLETED"
	StatusClosed      ReportStatus = "CLOSED"
	StatusReopened    ReportStatus = "REOPENED"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s ReportStatus) bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected,
		StatusAssigned, StatusInProgress, StatusCompleted, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// OpenStatuses are states still subject to SLA tracking.
var OpenStatuses = []ReportStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusAssigned,
	StatusInProgress,
}

// DuplicateCandidateStatuses are states in which a prior report can still
// shadow a new submission. Only closed and rejected reports stop counting:
// a completed-but-unrated or reopened report still describes a live issue.
var DuplicateCandidateStatuses = []ReportStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusReopened,
}

// Category enumerates the defect categories handled by the facility teams.
type Category string

const (
	CategoryElectrical Category = "ELECTRICAL"
	CategoryMechanical Category = "MECHANICAL"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	return c == CategoryElectrical || c == CategoryMechanical
}

// Priority enumerates SLA urgency, set by the coordinator at approval.
type Priority string

const (
	PriorityEmergency Priority = "EMERGENCY"
	PriorityHigh      Priority = "HIGH"
	PriorityMedium    Priority = "MEDIUM"
	PriorityLow       Priority = "LOW"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityEmergency, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Report is the aggregate for facility defect reports.
type Report struct {
	ID         string
	TicketCode string

	Category       Category
	Block          *string
	Room           *string
	LocationDetail *string

	Equipment string
	Problem   string

	Status      ReportStatus
	Priority    *Priority
	SubmitterID string
	AssigneeID  *string

	RejectionReason  *string
	CompletionNotes  *string
	PartsUsed        *string
	TimeSpentMinutes *int

	Rating          *int
	Feedback        *string
	MarkStillBroken bool

	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Rated reports whether a rating has been recorded.
func (r *Report) Rated() bool {
	return r.Rating != nil
}

// IsOpen reports whether the report still counts against its SLA window.
func (r *Report) IsOpen() bool {
	for _, s := range OpenStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// LocationLabel renders a human-readable location for notifications.
func (r *Report) LocationLabel() string {
	if r.Block != nil && *r.Block != "" {
		label := "Block " + *r.Block
		if r.Room != nil && *r.Room != "" {
			label += ", Room " + *r.Room
		}
		return label
	}
	if r.LocationDetail != nil {
		return *r.LocationDetail
	}
	return ""
}
