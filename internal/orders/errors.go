package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidState: mutating an order that is already COMPLETED or CANCELLED.
	ErrInvalidState = errors.New("order is completed or cancelled")

	// ErrDuplicateOrderNumber signals a same-day allocation race; the caller
	// re-reads the counter and retries.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
