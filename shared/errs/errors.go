// Package errs defines the error taxonomy shared by the billing core.
// Callers match categories with errors.Is against the sentinels and
// inspect details with errors.As against the typed errors.
package errs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrTenantIsolation = errors.New("cross-tenant reference")
	ErrNotFound        = errors.New("not found")
	ErrChannelDisabled = errors.New("messaging channel disabled")
	ErrDelivery        = errors.New("delivery failed")
	ErrAggregation     = errors.New("aggregation failed")
	ErrConflict        = errors.New("conflicting state")

	// ErrDuplicate is returned by storage when a uniqueness constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// ValidationError rejects bad input before anything is persisted
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TenantIsolationError reports an entity of another gym reaching an operation.
// It also matches ErrValidation since the input is rejected as a whole.
type TenantIsolationError struct {
	Entity string
	ID     uuid.UUID
	GymID  uuid.UUID
}

func (e *TenantIsolationError) Error() string {
	return fmt.Sprintf("%s %s does not belong to gym %s", e.Entity, e.ID, e.GymID)
}

func (e *TenantIsolationError) Is(target error) bool {
	return target == ErrTenantIsolation || target == ErrValidation
}

// NotFoundError reports an entity that is absent or not owned by the caller's gym
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError
func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ChannelDisabledError is returned before any state change when a gym has messaging off
type ChannelDisabledError struct {
	GymID uuid.UUID
}

func (e *ChannelDisabledError) Error() string {
	return fmt.Sprintf("messaging is disabled for gym %s", e.GymID)
}

func (e *ChannelDisabledError) Is(target error) bool { return target == ErrChannelDisabled }

// DeliveryFailureError carries the raw transport error recorded on the reminder or receipt
type DeliveryFailureError struct {
	Reason string
}

func (e *DeliveryFailureError) Error() string {
	return "delivery failed: " + e.Reason
}

func (e *DeliveryFailureError) Is(target error) bool { return target == ErrDelivery }

// AggregationError wraps a storage failure while computing a report
type AggregationError struct {
	Report string
	Err    error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %v", e.Report, e.Err)
}

func (e *AggregationError) Is(target error) bool { return target == ErrAggregation }

func (e *AggregationError) Unwrap() error { return e.Err }
