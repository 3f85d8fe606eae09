package portfolio

import "errors"

var (
	// ErrInvalidOrder means client input violated the placeOrder
	// preconditions; neither store was touched.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNotFound means a delete/lookup target is absent.
	ErrNotFound = errors.New("not found")
)
