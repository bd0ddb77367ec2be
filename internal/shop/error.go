package shop

import "goods-be/internal/apperr"

var (
	ErrUserNotAuthenticated = apperr.New(apperr.KindUnauthorized, "user not authenticated")
	ErrNotShopUser          = apperr.New(apperr.KindForbidden, "only shop users may manage a shop")

	ErrInvalidShopName = apperr.New(apperr.KindValidation, "invalid shop name")

	ErrShopNotFound = apperr.New(apperr.KindNotFound, "shop not found")
	// one shop per owner
	ErrOwnerHasShop = apperr.New(apperr.KindConflict, "user already owns a shop with a different name")
)
