package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"goods-be/internal/db"
	"goods-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	UpsertCategory(ctx context.Context, name string) (int64, error)
	ClearShopCategories(ctx context.Context, shopID int64) error
	LinkCategory(ctx context.Context, categoryID, shopID int64) error

	// RetireOffers removes a shop's active offers ahead of a re-import.
	RetireOffers(ctx context.Context, shopID int64) error

	UpsertProduct(ctx context.Context, name string, categoryID int64) (int64, error)
	InsertOffer(ctx context.Context, o NewOffer) (int64, error)
	UpsertParameter(ctx context.Context, name string) (int64, error)
	InsertProductParameter(ctx context.Context, productInfoID, parameterID int64, value string) error

	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductInfo, error)
	ListCategories(ctx context.Context) ([]Category, error)
	FetchParameters(ctx context.Context, productInfoIDs []int64) (map[int64][]ProductParameter, error)

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

// upsertID inserts a row by natural key and falls back to reading the id of
// the row that already holds the key.
func (r *repository) upsertID(ctx context.Context, insert, fallback string, args ...any) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, insert, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err := r.db.QueryRowContext(ctx, fallback, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpsertCategory(ctx context.Context, name string) (int64, error) {
	id, err := r.upsertID(ctx,
		`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`,
		`SELECT id FROM categories WHERE name = $1`,
		name,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert category %q: %w", name, err)
	}
	return id, nil
}

func (r *repository) ClearShopCategories(ctx context.Context, shopID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM category_shops WHERE shop_id = $1`, shopID)
	return err
}

func (r *repository) LinkCategory(ctx context.Context, categoryID, shopID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_shops (category_id, shop_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, categoryID, shopID)
	return err
}

func (r *repository) RetireOffers(ctx context.Context, shopID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "RetireOffers"),
		zap.Int64("shop_id", shopID),
	)

	// Baskets lose the retired offers; placed orders keep them archived.
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM order_items oi
		USING orders o, product_infos pi
		WHERE oi.order_id = o.id
		  AND oi.product_info_id = pi.id
		  AND o.state = 'basket'
		  AND pi.shop_id = $1
		  AND pi.archived_at IS NULL
	`, shopID)
	if err != nil {
		log.Error("failed to drop basket items", zap.Error(err))
		return err
	}
	dropped, _ := res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `
		UPDATE product_infos pi SET archived_at = NOW()
		WHERE pi.shop_id = $1
		  AND pi.archived_at IS NULL
		  AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.product_info_id = pi.id)
	`, shopID)
	if err != nil {
		log.Error("failed to archive offers", zap.Error(err))
		return err
	}
	archived, _ := res.RowsAffected()

	res, err = r.db.ExecContext(ctx,
		`DELETE FROM product_infos WHERE shop_id = $1 AND archived_at IS NULL`, shopID)
	if err != nil {
		log.Error("failed to delete offers", zap.Error(err))
		return err
	}
	deleted, _ := res.RowsAffected()

	log.Debug("offers retired",
		zap.Int64("basket_items_dropped", dropped),
		zap.Int64("archived", archived),
		zap.Int64("deleted", deleted),
	)
	return nil
}

func (r *repository) UpsertProduct(ctx context.Context, name string, categoryID int64) (int64, error) {
	id, err := r.upsertID(ctx, `
		INSERT INTO products (name, category_id) VALUES ($1, $2)
		ON CONFLICT (name, category_id) DO NOTHING
		RETURNING id
	`,
		`SELECT id FROM products WHERE name = $1 AND category_id = $2`,
		name, categoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert product %q: %w", name, err)
	}
	return id, nil
}

func (r *repository) InsertOffer(ctx context.Context, o NewOffer) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO product_infos (product_id, shop_id, external_id, model, price, price_rrc, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, o.ProductID, o.ShopID, o.ExternalID, o.Model, o.Price, o.PriceRRC, o.Quantity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert offer %d: %w", o.ExternalID, err)
	}
	return id, nil
}

func (r *repository) UpsertParameter(ctx context.Context, name string) (int64, error) {
	id, err := r.upsertID(ctx,
		`INSERT INTO parameters (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING id`,
		`SELECT id FROM parameters WHERE name = $1`,
		name,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert parameter %q: %w", name, err)
	}
	return id, nil
}

func (r *repository) InsertProductParameter(ctx context.Context, productInfoID, parameterID int64, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_parameters (product_info_id, parameter_id, value)
		VALUES ($1, $2, $3)
	`, productInfoID, parameterID, value)
	return err
}

func (r *repository) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductInfo, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListProducts"),
	)

	query := `
		SELECT pi.id, pi.external_id, pi.model, p.name, c.name, s.id, s.name,
		       pi.quantity, pi.price, pi.price_rrc
		FROM product_infos pi
		JOIN products p ON p.id = pi.product_id
		JOIN categories c ON c.id = p.category_id
		JOIN shops s ON s.id = pi.shop_id
		WHERE pi.archived_at IS NULL AND s.state
	`
	var args []any
	if filter.ShopID != nil {
		args = append(args, *filter.ShopID)
		query += fmt.Sprintf(" AND s.id = $%d", len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND c.id = $%d", len(args))
	}
	query += " ORDER BY pi.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var (
		infos []ProductInfo
		ids   []int64
	)
	for rows.Next() {
		var pi ProductInfo
		if err := rows.Scan(
			&pi.ID, &pi.ExternalID, &pi.Model, &pi.Product.Name, &pi.Product.Category,
			&pi.ShopID, &pi.ShopName, &pi.Quantity, &pi.Price, &pi.PriceRRC,
		); err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		infos = append(infos, pi)
		ids = append(ids, pi.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return infos, nil
	}

	params, err := r.FetchParameters(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		infos[i].Parameters = params[infos[i].ID]
	}
	log.Debug("products listed", zap.Int("count", len(infos)))
	return infos, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *repository) FetchParameters(ctx context.Context, productInfoIDs []int64) (map[int64][]ProductParameter, error) {
	out := make(map[int64][]ProductParameter, len(productInfoIDs))
	if len(productInfoIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT pp.product_info_id, p.name, pp.value
		FROM product_parameters pp
		JOIN parameters p ON p.id = pp.parameter_id
		WHERE pp.product_info_id = ANY($1)
		ORDER BY pp.product_info_id, p.name
	`, pq.Array(productInfoIDs))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query parameters",
			zap.String("layer", "repository"),
			zap.String("method", "FetchParameters"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			pp ProductParameter
		)
		if err := rows.Scan(&id, &pp.Parameter, &pp.Value); err != nil {
			return nil, err
		}
		out[id] = append(out[id], pp)
	}
	return out, rows.Err()
}
