package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"goods-be/internal/db"
	"goods-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetOrCreateBasket(ctx context.Context, userID int64) (int64, error)
	// FindBasket returns 0 when the user has no basket.
	FindBasket(ctx context.Context, userID int64) (int64, error)
	AddItem(ctx context.Context, orderID int64, item AddItem) (int64, error)
	RemoveItems(ctx context.Context, orderID int64, itemIDs []int64) (int64, error)
	UpdateItems(ctx context.Context, orderID int64, items []UpdateItem) (int64, error)

	LockOrder(ctx context.Context, orderID int64) (userID int64, state State, err error)
	LockShopOrder(ctx context.Context, orderID, ownerID int64) (userID int64, state State, err error)
	ItemShops(ctx context.Context, orderID int64) ([]ItemShop, error)
	CreateOrder(ctx context.Context, userID int64, state State, contactID int64) (int64, error)
	MoveItems(ctx context.Context, toOrderID int64, itemIDs []int64) error
	Place(ctx context.Context, orderID, contactID int64) error
	SetState(ctx context.Context, orderID int64, state State) error

	List(ctx context.Context, q Query) ([]Order, error)
	// ListItems loads items of the given orders. A non-nil shopOwnerID
	// keeps only items sold by that owner's shop.
	ListItems(ctx context.Context, orderIDs []int64, shopOwnerID *int64) ([]Item, error)

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

func (r *repository) GetOrCreateBasket(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, state) VALUES ($1, 'basket')
		ON CONFLICT (user_id) WHERE state = 'basket' DO NOTHING
		RETURNING id
	`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.FromCtx(ctx).Error("failed to create basket",
			zap.String("repo", "order"),
			zap.String("method", "GetOrCreateBasket"),
			zap.Error(err),
		)
		return 0, err
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE user_id = $1 AND state = 'basket'`, userID,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) FindBasket(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE user_id = $1 AND state = 'basket'`, userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *repository) AddItem(ctx context.Context, orderID int64, item AddItem) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_info_id, quantity)
		SELECT $1, pi.id, $3
		FROM product_infos pi
		JOIN shops s ON s.id = pi.shop_id
		WHERE pi.id = $2 AND pi.archived_at IS NULL AND s.state
		ON CONFLICT (order_id, product_info_id)
		DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
		RETURNING id
	`, orderID, item.ProductInfoID, item.Quantity).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrOfferUnavailable.With(fmt.Sprintf("product info %d is not available", item.ProductInfoID))
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) RemoveItems(ctx context.Context, orderID int64, itemIDs []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id = $1 AND id = ANY($2)`,
		orderID, pq.Array(itemIDs),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) UpdateItems(ctx context.Context, orderID int64, items []UpdateItem) (int64, error) {
	// A repeated id keeps its first position and its last quantity.
	ids := make([]int64, 0, len(items))
	qty := make([]int64, 0, len(items))
	pos := make(map[int64]int, len(items))
	for _, it := range items {
		if i, ok := pos[it.ID]; ok {
			qty[i] = int64(it.Quantity)
			continue
		}
		pos[it.ID] = len(ids)
		ids = append(ids, it.ID)
		qty = append(qty, int64(it.Quantity))
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE order_items oi SET quantity = v.quantity
		FROM unnest($2::bigint[], $3::int[]) AS v(id, quantity)
		WHERE oi.id = v.id AND oi.order_id = $1
	`, orderID, pq.Array(ids), pq.Array(qty))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) LockOrder(ctx context.Context, orderID int64) (int64, State, error) {
	var (
		userID int64
		state  State
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, state FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&userID, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrOrderNotFound
	}
	return userID, state, err
}

func (r *repository) LockShopOrder(ctx context.Context, orderID, ownerID int64) (int64, State, error) {
	var (
		userID int64
		state  State
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT o.user_id, o.state
		FROM orders o
		WHERE o.id = $1
		  AND o.state <> 'basket'
		  AND EXISTS (
			SELECT 1 FROM order_items oi
			JOIN product_infos pi ON pi.id = oi.product_info_id
			JOIN shops s ON s.id = pi.shop_id
			WHERE oi.order_id = o.id AND s.user_id = $2
		  )
		FOR UPDATE OF o
	`, orderID, ownerID).Scan(&userID, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", ErrOrderNotFound
	}
	return userID, state, err
}

func (r *repository) ItemShops(ctx context.Context, orderID int64) ([]ItemShop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, pi.shop_id
		FROM order_items oi
		JOIN product_infos pi ON pi.id = oi.product_info_id
		WHERE oi.order_id = $1
		ORDER BY pi.shop_id, oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemShop
	for rows.Next() {
		var is ItemShop
		if err := rows.Scan(&is.ItemID, &is.ShopID); err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

func (r *repository) CreateOrder(ctx context.Context, userID int64, state State, contactID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, state, contact_id) VALUES ($1, $2, $3)
		RETURNING id
	`, userID, string(state), contactID).Scan(&id)
	return id, err
}

func (r *repository) MoveItems(ctx context.Context, toOrderID int64, itemIDs []int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_items SET order_id = $1 WHERE id = ANY($2)`,
		toOrderID, pq.Array(itemIDs),
	)
	return err
}

func (r *repository) Place(ctx context.Context, orderID, contactID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET state = 'new', contact_id = $2 WHERE id = $1 AND state = 'basket'`,
		orderID, contactID,
	)
	return err
}

func (r *repository) SetState(ctx context.Context, orderID int64, state State) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET state = $2 WHERE id = $1`, orderID, string(state))
	return err
}

func (r *repository) List(ctx context.Context, q Query) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "order"),
		zap.String("method", "List"),
	)

	var (
		where []string
		args  []any
	)
	if q.Basket {
		where = append(where, "o.state = 'basket'")
	} else {
		where = append(where, "o.state <> 'basket'")
	}
	if q.UserID != nil {
		args = append(args, *q.UserID)
		where = append(where, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if q.ShopOwnerID != nil {
		args = append(args, *q.ShopOwnerID)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM order_items oi
			JOIN product_infos pi ON pi.id = oi.product_info_id
			JOIN shops s ON s.id = pi.shop_id
			WHERE oi.order_id = o.id AND s.user_id = $%d
		)`, len(args)))
	}

	query := `SELECT o.id, o.user_id, o.state, o.dt, o.contact_id FROM orders o WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY o.dt DESC, o.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.State, &o.CreatedAt, &o.ContactID); err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, orderIDs []int64, shopOwnerID *int64) ([]Item, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT oi.id, oi.order_id, oi.quantity,
		       pi.id, pi.external_id, pi.model, p.name, c.name, s.id, s.name,
		       pi.quantity, pi.price, pi.price_rrc, pi.archived_at
		FROM order_items oi
		JOIN product_infos pi ON pi.id = oi.product_info_id
		JOIN products p ON p.id = pi.product_id
		JOIN categories c ON c.id = p.category_id
		JOIN shops s ON s.id = pi.shop_id
		WHERE oi.order_id = ANY($1)
	`
	args := []any{pq.Array(orderIDs)}
	if shopOwnerID != nil {
		args = append(args, *shopOwnerID)
		query += " AND s.user_id = $2"
	}
	query += " ORDER BY oi.order_id, oi.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query order items",
			zap.String("repo", "order"),
			zap.String("method", "ListItems"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it Item
			pi = &it.ProductInfo
		)
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.Quantity,
			&pi.ID, &pi.ExternalID, &pi.Model, &pi.Product.Name, &pi.Product.Category,
			&pi.ShopID, &pi.ShopName, &pi.Quantity, &pi.Price, &pi.PriceRRC, &pi.ArchivedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
