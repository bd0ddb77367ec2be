package order

import "goods-be/internal/apperr"

var (
	ErrNoItems         = apperr.New(apperr.KindValidation, "items are required")
	ErrInvalidItem     = apperr.New(apperr.KindValidation, "invalid item")
	ErrInvalidQuantity = apperr.New(apperr.KindValidation, "quantity must be between 1 and 2147483647")
	ErrInvalidState    = apperr.New(apperr.KindValidation, "unknown order state")
	ErrEmptyBasket     = apperr.New(apperr.KindValidation, "basket is empty")
)

var (
	ErrOrderNotFound    = apperr.New(apperr.KindNotFound, "order not found")
	ErrOfferUnavailable = apperr.New(apperr.KindNotFound, "product info is not available")
)

var (
	ErrAlreadyPlaced     = apperr.New(apperr.KindConflict, "order is no longer a basket")
	ErrInvalidTransition = apperr.New(apperr.KindConflict, "invalid state transition")
)
