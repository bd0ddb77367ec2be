package contact

import (
	"context"
	"database/sql"
	"errors"

	"goods-be/internal/db"
	"goods-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Contact, error)
	GetForUser(ctx context.Context, userID, id int64) (*Contact, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]Contact, error)

	Create(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	DeleteForUser(ctx context.Context, userID int64, ids []int64) (int64, error)

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

const contactColumns = `id, user_id, city, street, house, structure, building, apartment, phone`

func scanContact(s interface{ Scan(...any) error }, c *Contact) error {
	return s.Scan(&c.ID, &c.UserID, &c.City, &c.Street, &c.House,
		&c.Structure, &c.Building, &c.Apartment, &c.Phone)
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Contact, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Contact"),
		zap.String("method", "ListByUser"),
	)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []Contact
	for rows.Next() {
		var c Contact
		if err := scanContact(rows, &c); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *repository) GetForUser(ctx context.Context, userID, id int64) (*Contact, error) {
	var c Contact
	err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, userID), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("query failed",
			zap.String("repo", "Contact"),
			zap.String("method", "GetForUser"),
			zap.Int64("contact_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Contact, error) {
	out := make(map[int64]Contact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c *Contact) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contacts (user_id, city, street, house, structure, building, apartment, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.UserID, c.City, c.Street, c.House, c.Structure, c.Building, c.Apartment, c.Phone).Scan(&c.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("insert failed",
			zap.String("repo", "Contact"),
			zap.String("method", "Create"),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) Update(ctx context.Context, c *Contact) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET city = $3, street = $4, house = $5, structure = $6,
		    building = $7, apartment = $8, phone = $9
		WHERE id = $1 AND user_id = $2
	`, c.ID, c.UserID, c.City, c.Street, c.House, c.Structure, c.Building, c.Apartment, c.Phone)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *repository) DeleteForUser(ctx context.Context, userID int64, ids []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE user_id = $1 AND id = ANY($2)`, userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
