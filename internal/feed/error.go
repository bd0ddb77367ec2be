package feed

import "goods-be/internal/apperr"

var (
	ErrInvalidURL = apperr.New(apperr.KindValidation, "invalid feed url")

	ErrFetchFailed   = apperr.New(apperr.KindUpstream, "failed to fetch feed")
	ErrTooLarge      = apperr.New(apperr.KindUpstream, "feed is too large")
	ErrMalformedFeed = apperr.New(apperr.KindUpstream, "malformed feed document")
)
