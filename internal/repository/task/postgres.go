package task

import (
	"context"
	"errors"
	"time"

	"quote-service/internal/domain"
	"quote-service/internal/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Record upserts by task id; a finished outcome replaces the running row.
func (r *postgresRepo) Record(ctx context.Context, o task.Outcome) error {
	const q = `
INSERT INTO invoice_tasks (id, kind, status, draft_order_id, draft_order_name, pdf_url, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    draft_order_id = EXCLUDED.draft_order_id,
    draft_order_name = EXCLUDED.draft_order_name,
    pdf_url = EXCLUDED.pdf_url,
    error = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at,
    updated_at = now()
`
	var finished *time.Time
	if !o.FinishedAt.IsZero() {
		finished = &o.FinishedAt
	}
	_, err := r.pool.Exec(ctx, q, o.ID, o.Kind, o.Status, o.DraftOrderID, o.DraftOrderName, o.PDFURL, o.Error, o.StartedAt, finished)
	return err
}

const selectColumns = `id::text, kind, status, draft_order_id, draft_order_name, pdf_url, error, started_at, finished_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*task.Outcome, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `SELECT ` + selectColumns + ` FROM invoice_tasks WHERE id = $1::uuid`
	o, err := scanOutcome(r.pool.QueryRow(ctx, q, parsed.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByDraftOrder(ctx context.Context, draftOrderID string, limit int) ([]task.Outcome, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT ` + selectColumns + ` FROM invoice_tasks WHERE draft_order_id = $1 ORDER BY started_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, draftOrderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOutcome(row pgx.Row) (*task.Outcome, error) {
	var o task.Outcome
	var finished *time.Time
	if err := row.Scan(
		&o.ID,
		&o.Kind,
		&o.Status,
		&o.DraftOrderID,
		&o.DraftOrderName,
		&o.PDFURL,
		&o.Error,
		&o.StartedAt,
		&finished,
	); err != nil {
		return nil, err
	}
	if finished != nil {
		o.FinishedAt = *finished
	}
	return &o, nil
}
