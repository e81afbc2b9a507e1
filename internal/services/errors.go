package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("amount must be a positive whole number")
	ErrMissingField       = errors.New("missing required field")
	ErrInvalidTarget      = errors.New("target part must be >= 1")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidPoints      = errors.New("points to credit must be positive")
	ErrPointsMismatch     = errors.New("points do not match the package for this amount")
)

// FieldError names the missing field.
type FieldError struct{ Field string }

func (e *FieldError) Error() string { return fmt.Sprintf("%s is required", e.Field) }
func (e *FieldError) Unwrap() error { return ErrMissingField }

// InsufficientPointsError carries the price the user could not cover.
// Have is nil when the balance could not be read back.
type InsufficientPointsError struct {
	Need int64
	Have *int64
}

func (e *InsufficientPointsError) Error() string {
	if e.Have == nil {
		return fmt.Sprintf("not enough points: need %d", e.Need)
	}
	return fmt.Sprintf("not enough points: need %d, have %d", e.Need, *e.Have)
}
func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return &FieldError{Field: pairs[i]}
		}
	}
	return nil
}
