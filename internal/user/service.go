package user

import (
	"context"
	"errors"
	"strings"

	"goods-be/internal/auth"
	"goods-be/internal/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

type service struct {
	repo     Repository
	tokens   *auth.Manager
	validate *validator.Validate
}

func NewService(repo Repository, tokens *auth.Manager) Service {
	return &service{
		repo:     repo,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Type == "" {
		input.Type = TypeBuyer
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
		zap.String("email", input.Email),
	)

	if err := s.validate.Struct(input); err != nil {
		log.Debug("registration rejected", zap.Error(err))
		return User{}, ErrInvalidInput.With(err.Error())
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, input.Email, hashed, input.Type)
	if err != nil {
		return User{}, err
	}

	log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("type", string(u.Type)))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
		zap.String("email", email),
	)

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login for unknown email")
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", User{}, err
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("password mismatch")
		return "", User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", User{}, ErrUserInactive
	}

	token, err := s.tokens.Generate(u.ID, u.Email, string(u.Type))
	if err != nil {
		log.Error("failed to generate jwt", zap.Error(err))
		return "", User{}, err
	}
	return token, u, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
