package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// ErrVersionConflict signals that a concurrent transition won the write race.
// The caller surfaces it as a retryable conflict, never a silent overwrite.
var ErrVersionConflict = errors.New("report version conflict")

// ErrNotFound signals the row does not exist (or is not owned by the caller).
var ErrNotFound = errors.New("record not found")

// ReportFilter captures query parameters for listing and scans.
type ReportFilter struct {
	SubmitterID *string
	AssigneeID  *string
	Category    *domain.Category
	Block       *string
	Statuses    []domain.ReportStatus
	PrioritySet *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ReportRepository encapsulates report persistence. State changes and their
// audit entry commit in one transaction: an accepted transition is never
// stored without its history row, and a failed history insert rolls the
// state change back.
type ReportRepository interface {
	CreateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error
	// UpdateWithHistory saves the report only if the stored version still
	// matches report.Version; ErrVersionConflict otherwise.
	UpdateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	GetByTicketCode(ctx context.Context, code string) (*domain.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const reportColumns = `id, ticket_code, category, block, room, location_detail, equipment, problem,
               status, priority, submitter_id, assignee_id, rejection_reason, completion_notes,
               parts_used, time_spent_minutes, rating, feedback, mark_still_broken, version,
               created_at, updated_at, completed_at`

func (r *reportRepository) CreateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error {
	const query = `
        INSERT INTO reports (ticket_code, category, block, room, location_detail, equipment, problem,
                             status, priority, submitter_id, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, version, created_at, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, query,
		report.TicketCode,
		report.Category,
		report.Block,
		report.Room,
		report.LocationDetail,
		report.Equipment,
		report.Problem,
		report.Status,
		report.Priority,
		report.SubmitterID,
		report.AssigneeID,
	).Scan(&report.ID, &report.Version, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return err
	}

	entry.ReportID = report.ID
	if err := insertHistoryEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *reportRepository) UpdateWithHistory(ctx context.Context, report *domain.Report, entry *domain.WorkflowHistoryEntry) error {
	const query = `
        UPDATE reports SET status=$1, priority=$2, assignee_id=$3, rejection_reason=$4,
            completion_notes=$5, parts_used=$6, time_spent_minutes=$7, rating=$8, feedback=$9,
            mark_still_broken=$10, completed_at=$11, version=version+1, updated_at=NOW()
        WHERE id=$12 AND version=$13`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, query,
		report.Status,
		report.Priority,
		report.AssigneeID,
		report.RejectionReason,
		report.CompletionNotes,
		report.PartsUsed,
		report.TimeSpentMinutes,
		report.Rating,
		report.Feedback,
		report.MarkStillBroken,
		report.CompletedAt,
		report.ID,
		report.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	entry.ReportID = report.ID
	if err := insertHistoryEntry(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	report.Version++
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id=$1`, reportColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *reportRepository) GetByTicketCode(ctx context.Context, code string) (*domain.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE ticket_code=$1`, reportColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *reportRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Report, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNotFound
	}
	return &reports[0], nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	base := fmt.Sprintf(`SELECT %s FROM reports`, reportColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Block != nil {
		args = append(args, *filter.Block)
		clauses = append(clauses, fmt.Sprintf("block=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.PrioritySet != nil {
		if *filter.PrioritySet {
			clauses = append(clauses, "priority IS NOT NULL")
		} else {
			clauses = append(clauses, "priority IS NULL")
		}
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	// Limit<=0 means unbounded: scheduler scans must see every matching row,
	// so paging is opt-in for the API layer, not a hidden default.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func scanReports(rows pgx.Rows) ([]domain.Report, error) {
	var result []domain.Report
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID,
			&report.TicketCode,
			&report.Category,
			&report.Block,
			&report.Room,
			&report.LocationDetail,
			&report.Equipment,
			&report.Problem,
			&report.Status,
			&report.Priority,
			&report.SubmitterID,
			&report.AssigneeID,
			&report.RejectionReason,
			&report.CompletionNotes,
			&report.PartsUsed,
			&report.TimeSpentMinutes,
			&report.Rating,
			&report.Feedback,
			&report.MarkStillBroken,
			&report.Version,
			&report.CreatedAt,
			&report.UpdatedAt,
			&report.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
