package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// ReportHistoryRepository reads the append-only workflow audit trail. Writes
// happen inside the report repository's transactions so a history row never
// exists without its state change and vice versa.
type ReportHistoryRepository interface {
	ListByReport(ctx context.Context, reportID string) ([]domain.WorkflowHistoryEntry, error)
}

type reportHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewReportHistoryRepository builds repository.
func NewReportHistoryRepository(pool *pgxpool.Pool) ReportHistoryRepository {
	return &reportHistoryRepository{pool: pool}
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertHistoryEntry appends one audit row. seq is allocated inside the
// insert so the per-report timeline stays strictly ordered even at identical
// timestamps.
func insertHistoryEntry(ctx context.Context, q rowQuerier, entry *domain.WorkflowHistoryEntry) error {
	const query = `
        INSERT INTO report_history (report_id, from_status, to_status, action, actor_id, detail, seq)
        SELECT $1,$2,$3,$4,$5,$6, COALESCE(MAX(seq),0)+1
        FROM report_history WHERE report_id=$1
        RETURNING id, seq, created_at`
	return q.QueryRow(ctx, query,
		entry.ReportID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Action,
		entry.ActorID,
		entry.Detail,
	).Scan(&entry.ID, &entry.Seq, &entry.CreatedAt)
}

func (r *reportHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.WorkflowHistoryEntry, error) {
	const query = `
        SELECT id, report_id, from_status, to_status, action, actor_id, detail, seq, created_at
        FROM report_history WHERE report_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowHistoryEntry
	for rows.Next() {
		var entry domain.WorkflowHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ReportID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Action,
			&entry.ActorID,
			&entry.Detail,
			&entry.Seq,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
