package user

import "goods-be/internal/apperr"

var (
	ErrUserNotAuthenticated = apperr.New(apperr.KindUnauthorized, "user not authenticated")
	ErrInvalidCredentials   = apperr.New(apperr.KindUnauthorized, "invalid email or password")
	ErrUserInactive         = apperr.New(apperr.KindForbidden, "user is inactive")

	ErrInvalidInput = apperr.New(apperr.KindValidation, "invalid registration data")

	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")
	ErrEmailExists  = apperr.New(apperr.KindConflict, "email already registered")
)
