package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"goods-be/internal/apperr"
	"goods-be/internal/db"
	"goods-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// Upsert returns the id of the shop identified by (name, owner),
	// creating it when missing.
	Upsert(ctx context.Context, name string, ownerID int64) (int64, error)
	GetByOwner(ctx context.Context, ownerID int64) (*Shop, error)
	List(ctx context.Context, filter Filter) ([]Shop, error)
	SetState(ctx context.Context, ownerID int64, state bool) error
	SetURL(ctx context.Context, shopID int64, url string) error

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

func (r *repository) Upsert(ctx context.Context, name string, ownerID int64) (int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Upsert"),
		zap.String("shop", name),
	)

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO shops (name, user_id) VALUES ($1, $2)
		ON CONFLICT (name, user_id) DO NOTHING
		RETURNING id
	`, name, ownerID).Scan(&id)
	if err == nil {
		log.Info("shop created", zap.Int64("shop_id", id))
		return id, nil
	}
	if apperr.IsUniqueViolation(err) {
		return 0, ErrOwnerHasShop
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to insert shop", zap.Error(err))
		return 0, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM shops WHERE name = $1 AND user_id = $2`, name, ownerID,
	).Scan(&id)
	if err != nil {
		log.Error("failed to read existing shop", zap.Error(err))
		return 0, err
	}
	return id, nil
}

func (r *repository) GetByOwner(ctx context.Context, ownerID int64) (*Shop, error) {
	var s Shop
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.url, s.state, s.user_id, COALESCE(u.email, '')
		FROM shops s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
	`, ownerID).Scan(&s.ID, &s.Name, &s.URL, &s.State, &s.UserID, &s.OwnerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query shop",
			zap.String("layer", "repository"),
			zap.String("method", "GetByOwner"),
			zap.Error(err),
		)
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Shop, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := `
		SELECT s.id, s.name, s.url, s.state, s.user_id, COALESCE(u.email, '')
		FROM shops s
		LEFT JOIN users u ON u.id = s.user_id
	`
	var (
		where []string
		args  []any
	)
	if filter.ShopID != nil {
		args = append(args, *filter.ShopID)
		where = append(where, fmt.Sprintf("s.id = $%d", len(args)))
	}
	if filter.OnlyAccepting {
		where = append(where, "s.state")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.name DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query shops", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var shops []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.State, &s.UserID, &s.OwnerEmail); err != nil {
			log.Error("failed to scan shop", zap.Error(err))
			return nil, err
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

func (r *repository) SetState(ctx context.Context, ownerID int64, state bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shops SET state = $2 WHERE user_id = $1`, ownerID, state)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShopNotFound
	}
	return nil
}

func (r *repository) SetURL(ctx context.Context, shopID int64, url string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE shops SET url = $2 WHERE id = $1`, shopID, url)
	return err
}
