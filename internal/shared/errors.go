package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced entity is absent from the tenant.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates a transition out of a terminal state.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrUnitMismatch indicates a mass/volume conversion without density.
	ErrUnitMismatch = errors.New("incompatible units")
	// ErrInsufficientStock indicates a short ingredient or line item.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConcurrency indicates the tenant write scope could not be acquired.
	ErrConcurrency = errors.New("tenant ledger busy")
)

// InsufficientStockError names the first item that could not cover a deduction.
type InsufficientStockError struct {
	Item      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: need %s, have %s", e.Item, e.Required, e.Available)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
