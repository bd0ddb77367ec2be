package contact

import (
	"context"

	"goods-be/internal/logger"
	"goods-be/internal/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context) ([]Contact, error)
	Create(ctx context.Context, input CreateInput) (*Contact, error)
	Update(ctx context.Context, input UpdateInput) (*Contact, error)
	// Delete removes the caller's contacts listed in a comma-separated id
	// string and reports how many were deleted.
	Delete(ctx context.Context, ids string) (int64, error)
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

func (s *service) List(ctx context.Context) ([]Contact, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Contact, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidContact.With(err.Error())
	}

	c := &Contact{
		UserID:    userID,
		City:      input.City,
		Street:    input.Street,
		House:     input.House,
		Structure: input.Structure,
		Building:  input.Building,
		Apartment: input.Apartment,
		Phone:     input.Phone,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("contact created",
		zap.String("service", "Contact"),
		zap.Int64("contact_id", c.ID),
	)
	return c, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Contact, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, ErrInvalidContact.With(err.Error())
	}

	c, err := s.repo.GetForUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	input.apply(c)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, ids string) (int64, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return 0, ErrUserNotAuthenticated
	}

	parsed := utils.ParseIDList(ids)
	if len(parsed) == 0 {
		return 0, ErrNoIDs
	}

	n, err := s.repo.DeleteForUser(ctx, userID, parsed)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to delete contacts", zap.Error(err))
		return 0, err
	}
	return n, nil
}
