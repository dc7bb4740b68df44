// Package sla maps report priority to a resolution time budget and evaluates
// deadline status. The hour table is deployment configuration; the defaults
// here are the single documented baseline.
package sla

import (
	"time"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// Default hour budgets per priority.
const (
	DefaultEmergencyHours = 2
	DefaultHighHours      = 8
	DefaultMediumHours    = 24
	DefaultLowHours       = 72
)

// Policy resolves priorities to durations and computes deadline windows.
type Policy struct {
	durations map[domain.Priority]time.Duration
}

// DefaultDurations returns the documented default priority table.
func DefaultDurations() map[domain.Priority]time.Duration {
	return map[domain.Priority]time.Duration{
		domain.PriorityEmergency: DefaultEmergencyHours * time.Hour,
		domain.PriorityHigh:      DefaultHighHours * time.Hour,
		domain.PriorityMedium:    DefaultMediumHours * time.Hour,
		domain.PriorityLow:       DefaultLowHours * time.Hour,
	}
}

// NewPolicy builds a policy from the given table. Missing or non-positive
// entries fall back to the defaults, so a partial override stays safe.
func NewPolicy(durations map[domain.Priority]time.Duration) *Policy {
	merged := DefaultDurations()
	for priority, d := range durations {
		if d > 0 {
			merged[priority] = d
		}
	}
	return &Policy{durations: merged}
}

// DurationFor returns the time budget for a priority.
func (p *Policy) DurationFor(priority domain.Priority) (time.Duration, bool) {
	d, ok := p.durations[priority]
	return d, ok
}

// Deadline computes created_at + budget. The second return is false while the
// report has no priority yet (pre-approval), when no deadline exists.
func (p *Policy) Deadline(report *domain.Report) (time.Time, bool) {
	if report == nil || report.Priority == nil {
		return time.Time{}, false
	}
	d, ok := p.durations[*report.Priority]
	if !ok {
		return time.Time{}, false
	}
	return report.CreatedAt.Add(d), true
}

// Window describes a report's position relative to its SLA deadline.
// Remaining is the absolute distance to the deadline at minute resolution.
type Window struct {
	Deadline  time.Time
	Remaining time.Duration
	Overdue   bool
}

// Remaining evaluates the SLA window at the given instant. The second return
// is false when the report has no deadline yet.
func (p *Policy) Remaining(report *domain.Report, now time.Time) (Window, bool) {
	deadline, ok := p.Deadline(report)
	if !ok {
		return Window{}, false
	}
	diff := deadline.Sub(now)
	overdue := diff < 0
	if overdue {
		diff = -diff
	}
	return Window{
		Deadline:  deadline,
		Remaining: diff.Truncate(time.Minute),
		Overdue:   overdue,
	}, true
}

// Severity grades an SLA breach: critical for emergency/high, medium otherwise.
func Severity(priority domain.Priority) domain.NotificationSeverity {
	if priority == domain.PriorityEmergency || priority == domain.PriorityHigh {
		return domain.SeverityCritical
	}
	return domain.SeverityMedium
}
