package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/events"
	"github.com/aastu-platform/facility-reports/internal/repository"
)

type fakeReportRepo struct {
	mu           sync.Mutex
	reports      map[string]domain.Report
	history      *fakeHistoryRepo
	failUpdate   error
	failUpdateID string
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		reports: make(map[string]domain.Report),
		history: &fakeHistoryRepo{},
	}
}

// CreateWithHistory persists the report and its first audit row together, or
// neither when the history write fails.
func (f *fakeReportRepo) CreateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report.ID = uuid.NewString()
	report.Version = 1
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	entry.ReportID = report.ID
	if err := f.history.append(entry); err != nil {
		return err
	}
	f.reports[report.ID] = *report
	return nil
}

func (f *fakeReportRepo) UpdateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil && (f.failUpdateID == "" || f.failUpdateID == report.ID) {
		return f.failUpdate
	}
	stored, ok := f.reports[report.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != report.Version {
		return repository.ErrVersionConflict
	}
	entry.ReportID = report.ID
	if err := f.history.append(entry); err != nil {
		return err
	}
	report.Version++
	report.UpdatedAt = time.Now().UTC()
	f.reports[report.ID] = *report
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := report
	return &copy, nil
}

func (f *fakeReportRepo) GetByTicketCode(ctx context.Context, code string) (*domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, report := range f.reports {
		if report.TicketCode == code {
			copy := report
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Report
	for _, report := range f.reports {
		if filter.SubmitterID != nil && report.SubmitterID != *filter.SubmitterID {
			continue
		}
		if filter.AssigneeID != nil && (report.AssigneeID == nil || *report.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Category != nil && report.Category != *filter.Category {
			continue
		}
		if filter.Block != nil && (report.Block == nil || *report.Block != *filter.Block) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, report.Status) {
			continue
		}
		if filter.PrioritySet != nil && *filter.PrioritySet != (report.Priority != nil) {
			continue
		}
		if filter.CreatedFrom != nil && report.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && report.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func containsStatus(statuses []domain.ReportStatus, status domain.ReportStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeHistoryRepo struct {
	mu         sync.Mutex
	entries    []domain.WorkflowHistoryEntry
	failAppend error
}

func (f *fakeHistoryRepo) append(entry *domain.WorkflowHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend != nil {
		return f.failAppend
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	seq := 1
	for _, existing := range f.entries {
		if existing.ReportID == entry.ReportID {
			seq++
		}
	}
	entry.Seq = seq
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByReport(ctx context.Context, reportID string) ([]domain.WorkflowHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.WorkflowHistoryEntry
	for _, entry := range f.entries {
		if entry.ReportID == reportID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := user
	return &copy, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification.ID = uuid.NewString()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, n := range f.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].RecipientID == recipientID {
			f.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Notification
	var removed int64
	for _, n := range f.notifications {
		if n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return removed, nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (c *capturingDispatcher) ofType(eventType events.EventType) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []events.Event
	for _, event := range c.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
