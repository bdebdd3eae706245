package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// NotFoundError means a referenced entity does not exist (or is inactive where
// that matters to the caller).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// PaymentError means the payment gateway declined, was unreachable or is behind
// an open circuit.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string { return "payment failed: " + e.Err.Error() }
func (e *PaymentError) Unwrap() error { return e.Err }

// ConflictError reports a uniqueness clash (duplicate name, username...).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthError is returned for bad credentials or unusable tokens.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func notFound(resource string, id fmt.Stringer) error {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
