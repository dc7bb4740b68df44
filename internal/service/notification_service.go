package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aastu-platform/facility-reports/internal/config"
	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/repository"
)

// NotificationService turns domain events into persisted notification rows
// and stub deliveries. Handlers are best-effort; a failed insert is logged
// and never interferes with the originating operation.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportCreated, n.handleReportCreated)
	n.dispatcher.Subscribe(events.EventReportTransitioned, n.handleReportTransitioned)
	n.dispatcher.Subscribe(events.EventReportSLAViolated, n.handleSLAViolated)
	n.dispatcher.Subscribe(events.EventReportDuplicateSuspected, n.handleDuplicateSuspected)
}

// ListForRecipient returns a user's notifications, newest first.
func (n *NotificationService) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.ListByRecipient(ctx, recipientID, unreadOnly, limit, offset)
}

// MarkRead flags a notification as read for its recipient.
func (n *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	return n.notifications.MarkRead(ctx, id, recipientID)
}

func (n *NotificationService) handleReportCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	message := fmt.Sprintf("Your report %s was received and is awaiting review.", payload.TicketCode)
	n.store(ctx, event, payload.SubmitterID, domain.SeverityInfo, message)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReportTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportTransitionedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	message := fmt.Sprintf("Report %s moved from %s to %s.", payload.TicketCode, payload.From, payload.To)
	if payload.Detail != "" {
		message += " " + payload.Detail
	}
	n.store(ctx, event, payload.SubmitterID, domain.SeverityInfo, message)
	if payload.AssigneeID != nil && *payload.AssigneeID != payload.SubmitterID {
		n.store(ctx, event, *payload.AssigneeID, domain.SeverityInfo, message)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSLAViolated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLAViolatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	message := fmt.Sprintf("Report %s breached its %s SLA; %d minutes past the deadline.",
		payload.TicketCode, payload.Priority, payload.OverdueMinutes)
	if payload.AssigneeID != nil {
		n.store(ctx, event, *payload.AssigneeID, payload.Severity, message)
	}
	n.store(ctx, event, payload.SubmitterID, payload.Severity, message)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleDuplicateSuspected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DuplicateSuspectedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	n.store(ctx, event, payload.SubmitterID, domain.SeverityInfo, payload.WarningMessage)
	return nil
}

func (n *NotificationService) store(ctx context.Context, event events.Event, recipientID string, severity domain.NotificationSeverity, message string) {
	if recipientID == "" {
		return
	}
	notification := &domain.Notification{
		RecipientID: recipientID,
		ReportID:    event.ReportID,
		EventType:   string(event.Type),
		Severity:    severity,
		Message:     message,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("notification insert failed",
			zap.String("event_type", string(event.Type)),
			zap.String("recipient_id", recipientID),
			zap.Error(err))
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("report_id", event.ReportID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("report_id", event.ReportID),
		zap.String("event_type", string(event.Type)))
}
