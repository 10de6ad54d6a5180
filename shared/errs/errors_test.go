package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCategoriesMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("record payment: %w", Invalid("amount", "must be greater than zero"))
	require.ErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrNotFound)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "amount", ve.Field)
}

func TestTenantIsolationIsAlsoValidation(t *testing.T) {
	err := &TenantIsolationError{Entity: "member", ID: uuid.New(), GymID: uuid.New()}
	require.ErrorIs(t, err, ErrTenantIsolation)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAggregationUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &AggregationError{Report: "income", Err: cause}
	require.ErrorIs(t, err, ErrAggregation)
	require.ErrorIs(t, err, cause)
}
