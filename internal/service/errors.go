package service

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")

	ErrCartEmpty       = errors.New("cart is empty")
	ErrQuantityInvalid = errors.New("quantity must be > 0")

	ErrNoCheckoutState      = errors.New("no active checkout")
	ErrCheckoutWrongStep    = errors.New("checkout is not at this step")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrTooManyRequests      = errors.New("too many requests")

	ErrStatusInvalid    = errors.New("invalid order status")
	ErrOrderNotPaid     = errors.New("order is not paid")
	ErrAlreadyPaid      = errors.New("order already paid")
	ErrUnknownMethod    = errors.New("unknown payment method")
	ErrBadAccountNumber = errors.New("invalid account number")
	ErrNoSavedAccount   = errors.New("no saved account for this method")

	ErrRatingInvalid   = errors.New("rating must be between 1 and 5")
	ErrReviewLimit     = errors.New("daily review limit reached")
	ErrNothingSelected = errors.New("no reviews selected")
)
