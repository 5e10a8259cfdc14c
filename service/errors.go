package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCannotDetermineMarketPrice is returned for a market order when the
	// queried side of the book has no resting order to price it against.
	ErrCannotDetermineMarketPrice = errors.New("cannot determine market price")

	// ErrRestingOrderMissing means an order read under the category lock was
	// gone when the placement wrote to it.
	ErrRestingOrderMissing = errors.New("resting order missing during placement")

	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("limit price must be positive")
	ErrEmptyName       = errors.New("category name must not be empty")
)

// StoreError wraps any failure coming from the order store. The transaction
// it happened in has been rolled back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
