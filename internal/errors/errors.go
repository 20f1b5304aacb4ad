// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks caller mistakes (missing ids, bad JSON).
var ErrInvalidInput = errors.New("invalid input")

type ErrPaymentNotFound struct {
	PaymentID string
}

func (e *ErrPaymentNotFound) Error() string {
	return fmt.Sprintf("payment with ID %s not found", e.PaymentID)
}

func NewPaymentNotFound(id string) error {
	return &ErrPaymentNotFound{PaymentID: id}
}

type ErrOrderNotFound struct {
	OrderID string
}

func (e *ErrOrderNotFound) Error() string {
	return fmt.Sprintf("order with ID %s not found", e.OrderID)
}

func NewOrderNotFound(id string) error {
	return &ErrOrderNotFound{OrderID: id}
}

// Invalid wraps ErrInvalidInput with a caller-facing reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// IsNotFound reports whether err carries one of the not-found types.
func IsNotFound(err error) bool {
	var p *ErrPaymentNotFound
	var o *ErrOrderNotFound
	return errors.As(err, &p) || errors.As(err, &o)
}
