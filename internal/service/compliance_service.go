package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/observability"
	"github.com/aastu-platform/facility-reports/internal/repository"
	"github.com/aastu-platform/facility-reports/internal/sla"
)

// ComplianceService runs the scheduled SLA scan and retention sweep.
type ComplianceService struct {
	reports       repository.ReportRepository
	notifications repository.NotificationRepository
	policy        *sla.Policy
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	maxNotifAge   time.Duration
	now           func() time.Time
}

// ComplianceDependencies bundles collaborators for the compliance service.
type ComplianceDependencies struct {
	ReportRepo         repository.ReportRepository
	NotificationRepo   repository.NotificationRepository
	Policy             *sla.Policy
	Dispatcher         events.Dispatcher
	Metrics            *observability.Metrics
	Logger             *zap.Logger
	NotificationMaxAge time.Duration
}

// NewComplianceService constructs the service.
func NewComplianceService(deps ComplianceDependencies) *ComplianceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceService{
		reports:       deps.ReportRepo,
		notifications: deps.NotificationRepo,
		policy:        deps.Policy,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		maxNotifAge:   deps.NotificationMaxAge,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ScanSLA walks the open prioritised reports and emits a violation event for
// each one past its deadline. The scan is read-only with respect to reports;
// repeated scans of the same overdue report emit repeated events, and
// listeners decide how to de-duplicate.
func (c *ComplianceService) ScanSLA(ctx context.Context) error {
	prioritySet := true
	reports, err := c.reports.List(ctx, repository.ReportFilter{
		Statuses:    domain.OpenStatuses,
		PrioritySet: &prioritySet,
	})
	if err != nil {
		return err
	}

	now := c.now()
	violated := 0
	for i := range reports {
		report := &reports[i]
		window, ok := c.policy.Remaining(report, now)
		if !ok || !window.Overdue {
			continue
		}
		violated++
		severity := sla.Severity(*report.Priority)
		c.metrics.RecordSLAViolation(severity)
		c.publish(ctx, events.Event{
			Type:      events.EventReportSLAViolated,
			ReportID:  report.ID,
			Timestamp: now,
			Payload: events.SLAViolatedPayload{
				TicketCode:     report.TicketCode,
				Priority:       *report.Priority,
				Severity:       severity,
				Deadline:       window.Deadline,
				OverdueMinutes: int64(window.Remaining / time.Minute),
				SubmitterID:    report.SubmitterID,
				AssigneeID:     report.AssigneeID,
			},
		})
	}

	c.logger.Info("sla scan finished",
		zap.Int("checked", len(reports)),
		zap.Int("violated", violated))
	return nil
}

// PurgeNotifications deletes notification rows older than the configured
// retention age.
func (c *ComplianceService) PurgeNotifications(ctx context.Context) error {
	if c.maxNotifAge <= 0 {
		return nil
	}
	cutoff := c.now().Add(-c.maxNotifAge)
	purged, err := c.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		c.metrics.RecordNotificationsPurged(purged)
	}
	c.logger.Info("notification sweep finished",
		zap.Int64("purged", purged),
		zap.Time("cutoff", cutoff))
	return nil
}

func (c *ComplianceService) publish(ctx context.Context, event events.Event) {
	if c.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	if err := c.dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
