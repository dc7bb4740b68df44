package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// NotificationRepository stores per-recipient notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, report_id, event_type, severity, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, read, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientID,
		notification.ReportID,
		notification.EventType,
		notification.Severity,
		notification.Message,
	).Scan(&notification.ID, &notification.Read, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	query := `
        SELECT id, recipient_id, report_id, event_type, severity, message, read, created_at
        FROM notifications WHERE recipient_id=$1`
	if unreadOnly {
		query += ` AND read=false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.ReportID,
			&n.EventType,
			&n.Severity,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const query = `UPDATE notifications SET read=true WHERE id=$1 AND recipient_id=$2`
	tag, err := r.pool.Exec(ctx, query, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM notifications WHERE created_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
