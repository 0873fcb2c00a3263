package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrValidation         = errors.New("invalid order request")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product not available")
	ErrPaymentExists      = errors.New("payment already exists for this order")
	ErrPaymentNotFound    = errors.New("no payment found for this order")
	ErrForbidden          = errors.New("not allowed")
)

// InvalidTransitionError rejects a status change the lifecycle does not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
