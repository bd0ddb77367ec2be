package db

import (
	"context"
	"database/sql"
	"fmt"

	"goods-be/internal/logger"

	"go.uber.org/zap"
)

// TxRunner scopes one unit of work to a single transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type txRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) TxRunner {
	return &txRunner{db: db}
}

// WithTx commits when fn returns nil and rolls back otherwise, including
// when fn panics.
func (r *txRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "db"))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
		} else {
			log.Debug("transaction rolled back")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
