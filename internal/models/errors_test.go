package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	capErr := fmt.Errorf("admit: %w", &CapacityError{Requested: 3, Remaining: 2})
	assert.True(t, errors.Is(capErr, ErrCapacityExceeded))
	assert.True(t, errors.Is(capErr, ErrConflict))
	assert.False(t, errors.Is(capErr, ErrInvalidArgument))

	var ce *CapacityError
	assert.True(t, errors.As(capErr, &ce))
	assert.Equal(t, 2, ce.Remaining)
	assert.Equal(t, "Cannot register 3 tickets. Only 2 spots remaining.", ce.Error())

	regErr := &RegistrationsExistError{Count: 4}
	assert.True(t, errors.Is(regErr, ErrConflict))
	assert.False(t, errors.Is(regErr, ErrCapacityExceeded))

	valErr := NewValidationError("GoalAttendees", "must be at least 1")
	assert.True(t, errors.Is(valErr, ErrInvalidArgument))
	assert.Equal(t, "GoalAttendees: must be at least 1", valErr.Error())

	assert.True(t, errors.Is(ErrTransient, ErrStorage))
}

func TestEventRemaining(t *testing.T) {
	e := Event{GoalAttendees: 100, CurrentAttendees: 98, CurrentStatus: StatusActive}
	assert.Equal(t, 2, e.Remaining())
	assert.True(t, e.IsActive())
}
