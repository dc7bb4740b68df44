package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/config"
	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/events"
)

func TestNotificationFanOut(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := NewNotificationService(repo, dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	assigneeID := fixer.ID
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:      events.EventReportTransitioned,
		ReportID:  "r1",
		Timestamp: time.Now().UTC(),
		Payload: events.ReportTransitionedPayload{
			From:        domain.StatusApproved,
			To:          domain.StatusAssigned,
			Action:      "assign",
			TicketCode:  "AASTU-MECH-20250310-0004",
			SubmitterID: reporter.ID,
			AssigneeID:  &assigneeID,
		},
	}))

	submitterRows, err := svc.ListForRecipient(ctx, reporter.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, submitterRows, 1)
	assert.Equal(t, domain.SeverityInfo, submitterRows[0].Severity)
	assert.Contains(t, submitterRows[0].Message, "AASTU-MECH-20250310-0004")
	assert.Contains(t, submitterRows[0].Message, string(domain.StatusAssigned))

	assigneeRows, err := svc.ListForRecipient(ctx, fixer.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, assigneeRows, 1)
}

func TestNotificationSLASeverity(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := NewNotificationService(repo, dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventReportSLAViolated,
		ReportID: "r2",
		Payload: events.SLAViolatedPayload{
			TicketCode:     "AASTU-ELEC-20250310-0007",
			Priority:       domain.PriorityEmergency,
			Severity:       domain.SeverityCritical,
			Deadline:       time.Now().UTC().Add(-time.Hour),
			OverdueMinutes: 60,
			SubmitterID:    reporter.ID,
		},
	}))

	rows, err := svc.ListForRecipient(ctx, reporter.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.SeverityCritical, rows[0].Severity)
	assert.Contains(t, rows[0].Message, "60 minutes")
}

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := NewNotificationService(repo, dispatcher, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventReportCreated,
		ReportID: "r3",
		Payload: events.ReportCreatedPayload{
			TicketCode:  "AASTU-ELEC-20250310-0009",
			Category:    domain.CategoryElectrical,
			SubmitterID: reporter.ID,
		},
	}))

	rows, err := svc.ListForRecipient(ctx, reporter.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, svc.MarkRead(ctx, rows[0].ID, reporter.ID))

	unread, err := svc.ListForRecipient(ctx, reporter.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
