package contact

import "goods-be/internal/apperr"

var (
	ErrUserNotAuthenticated = apperr.New(apperr.KindUnauthorized, "user not authenticated")
	ErrInvalidContact       = apperr.New(apperr.KindValidation, "invalid contact")
	ErrNoIDs                = apperr.New(apperr.KindValidation, "no contact ids given")
	ErrContactNotFound      = apperr.New(apperr.KindNotFound, "contact not found")
)
