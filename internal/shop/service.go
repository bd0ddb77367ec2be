package shop

import (
	"context"

	"goods-be/internal/logger"
	"goods-be/internal/utils"

	"go.uber.org/zap"
)

const ownerType = "shop"

type Service interface {
	ListShops(ctx context.Context, filter Filter) ([]Shop, error)
	// GetOwn returns the shop owned by the calling shop user.
	GetOwn(ctx context.Context) (*Shop, error)
	SetState(ctx context.Context, accepting bool) (*Shop, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// RequireOwner returns the caller's user id when the caller is a shop user.
func RequireOwner(ctx context.Context) (int64, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return 0, ErrUserNotAuthenticated
	}
	if utils.GetUserTypeFromContext(ctx) != ownerType {
		return 0, ErrNotShopUser
	}
	return userID, nil
}

func (s *service) ListShops(ctx context.Context, filter Filter) ([]Shop, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetOwn(ctx context.Context) (*Shop, error) {
	ownerID, err := RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *service) SetState(ctx context.Context, accepting bool) (*Shop, error) {
	ownerID, err := RequireOwner(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SetState"),
		zap.Bool("state", accepting),
	)

	if err := s.repo.SetState(ctx, ownerID, accepting); err != nil {
		log.Warn("failed to set shop state", zap.Error(err))
		return nil, err
	}
	log.Info("shop state updated")
	return s.repo.GetByOwner(ctx, ownerID)
}
