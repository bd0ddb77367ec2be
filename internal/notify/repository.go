package notify

import (
	"context"
	"database/sql"
	"time"

	"goods-be/internal/db"
	"goods-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, e Entry) error
	// FetchDue locks up to limit pending or failed entries whose next_at
	// has passed. Call it inside a transaction.
	FetchDue(ctx context.Context, limit int) ([]Entry, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, status Status, attempts int, lastErr string, nextAt time.Time) error

	WithTx(tx *sql.Tx) Repository
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_events (id, topic, key, payload, status)
		VALUES ($1, $2, $3, $4, 'pending')
	`, e.ID, e.Topic, e.Key, string(e.Payload))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert outbox entry",
			zap.String("repo", "outbox"),
			zap.String("method", "Insert"),
			zap.String("topic", e.Topic),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) FetchDue(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, topic, key, payload, status, attempts, last_error, next_at, created_at
		FROM outbox_events
		WHERE status IN ('pending', 'failed') AND next_at <= NOW()
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Topic, &e.Key, &e.Payload, &e.Status,
			&e.Attempts, &e.LastError, &e.NextAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = 'sent', sent_at = NOW(), attempts = attempts + 1, last_error = ''
		WHERE id = $1
	`, id)
	return err
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, status Status, attempts int, lastErr string, nextAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $2, attempts = $3, last_error = $4, next_at = $5
		WHERE id = $1
	`, id, string(status), attempts, lastErr, nextAt)
	return err
}
