package domain

import "time"

// NotificationSeverity grades how urgent a notification is.
type NotificationSeverity string

const (
	SeverityInfo     NotificationSeverity = "INFO"
	SeverityMedium   NotificationSeverity = "MEDIUM"
	SeverityCritical NotificationSeverity = "CRITICAL"
)

// Notification is a persisted fan-out record for a domain event. Delivery
// channels (email/push/SMS) are an external collaborator's concern; rows
// older than the configured retention age are purged by the sweep job.
type Notification struct {
	ID          string
	RecipientID string
	ReportID    string
	EventType   string
	Severity    NotificationSeverity
	Message     string
	Read        bool
	CreatedAt   time.Time
}
