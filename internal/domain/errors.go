package domain

import "errors"

var (
	// ErrNotFound indicates an unknown player ID.
	ErrNotFound = errors.New("player not found")

	// ErrHoldingNotFound indicates an unknown holding ID for a player.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrInsufficientFunds indicates a buy whose cost exceeds the player's
	// remaining cash. The trade is not applied.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrQuoteUnavailable indicates the quote source returned no usable
	// price for a ticker. Treated as a soft failure: the ticker is omitted
	// from the price map, it never aborts a batch.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrInvalidInput wraps every domain validation failure so the HTTP
	// boundary can classify them with errors.Is instead of matching on
	// message text.
	ErrInvalidInput = errors.New("invalid input")
)
