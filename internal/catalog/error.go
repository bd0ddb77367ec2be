package catalog

import "goods-be/internal/apperr"

var (
	ErrInvalidFeed      = apperr.New(apperr.KindValidation, "invalid feed")
	ErrInvalidParameter = apperr.New(apperr.KindValidation, "invalid parameter value")
	ErrNegativePrice    = apperr.New(apperr.KindValidation, "price must not be negative")
	ErrInvalidFilter    = apperr.New(apperr.KindValidation, "limit and offset must not be negative")

	ErrCategoryNotFound = apperr.New(apperr.KindNotFound, "category not found in feed")
)
