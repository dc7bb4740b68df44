package domain

import "time"

// WorkflowHistoryEntry is an immutable audit record of one accepted transition.
// Entries are append-only; Seq is monotonically increasing per report so the
// timeline stays replayable regardless of timestamp granularity.
type WorkflowHistoryEntry struct {
	ID         string
	ReportID   string
	FromStatus ReportStatus
	ToStatus   ReportStatus
	Action     string
	ActorID    string
	Detail     *string
	Seq        int
	CreatedAt  time.Time
}
