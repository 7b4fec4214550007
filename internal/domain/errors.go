package domain

import "errors"

var (
	// ErrInvalidProfile is returned when the tank volume is not positive.
	ErrInvalidProfile = errors.New("invalid container profile: tank volume must be positive")

	// ErrProfileIncomplete means the user has not set tank and soil volumes.
	ErrProfileIncomplete = errors.New("user profile incomplete: tank and soil volumes required")

	// ErrMalformedForecast is returned when the stored prediction and date
	// arrays have different lengths.
	ErrMalformedForecast = errors.New("malformed forecast: predictions and dates differ in length")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)
