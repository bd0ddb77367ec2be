package user

import (
	"context"
	"database/sql"
	"errors"

	"goods-be/internal/apperr"
	"goods-be/internal/db"
	"goods-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, email, passwordHash string, userType Type) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(q db.DBTX) Repository {
	return &repository{db: q}
}

const userColumns = "id, email, password, type, is_active, created_at"

func (r *repository) Create(ctx context.Context, email, passwordHash string, userType Type) (User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("email", email),
	)

	var u User
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password, type) VALUES ($1, $2, $3) RETURNING "+userColumns,
		email, passwordHash, userType,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Type, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		log.Error("failed to insert user", zap.Error(err))
		return User{}, err
	}
	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, "FindByEmail", "email = $1", email)
}

func (r *repository) FindByID(ctx context.Context, id int64) (User, error) {
	return r.findOne(ctx, "FindByID", "id = $1", id)
}

func (r *repository) findOne(ctx context.Context, method, where string, arg any) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Type, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query user",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return User{}, err
	}
	return u, nil
}
