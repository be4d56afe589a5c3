package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByKind(t *testing.T) {
	err := NewNotFoundError("Booking", "42")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConditionsNotMet))
	assert.Equal(t, "Booking with id 42 not found", err.Error())
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve: %w", NewInvalidOperationError("not owner"))

	assert.ErrorIs(t, err, ErrInvalidOperation)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindInvalidOperation, kind)
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}
