package appErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewPaymentNotFound("p-1")))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", NewOrderNotFound("O-1"))))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(Invalid("payment_id is required")))
}

func TestInvalidWrapsSentinel(t *testing.T) {
	err := Invalid("order_id is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "order_id is required")
}
