package service

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnavailable     = errors.New("feature not configured")
	ErrCodeExhausted   = errors.New("could not generate a unique affiliate code")
	ErrLinkNotFound    = errors.New("affiliate link not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceNotPaid  = errors.New("invoice is not paid")
	ErrInvoicePaid     = errors.New("invoice is already paid")

	// ErrInvalidAffiliateCode is returned for an empty or unknown referral code.
	ErrInvalidAffiliateCode = errors.New("invalid affiliate code")
	ErrNoAttribution        = errors.New("no attribution token")
	ErrSelfReferral         = errors.New("self referral")

	ErrConversionNotFound = errors.New("conversion not found")
	ErrConversionExists   = errors.New("conversion already exists for this order")
	ErrStatusRequired     = errors.New("status is required")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrConcurrentUpdate   = errors.New("conversion was modified concurrently")

	ErrPayoutNotFound      = errors.New("payout not found")
	ErrBelowMinPayout      = errors.New("amount is below the minimum payout")
	ErrInsufficientBalance = errors.New("insufficient affiliate balance")

	ErrUserNotFound   = errors.New("user not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrInvalidCreds   = errors.New("invalid email or password")

	// ErrUnverifiedEmail rejects a Google profile whose email Google has not verified.
	ErrUnverifiedEmail = errors.New("google email is not verified")
)
