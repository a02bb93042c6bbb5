package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiedErrorsWrap(t *testing.T) {
	sentinel := Conflict("already_finalized", "booking: already finalized")
	wrapped := fmt.Errorf("finalize: %w", sentinel)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, "already_finalized", ReasonOf(wrapped))
	assert.Equal(t, ErrConflict, KindOf(wrapped))
}

func TestUnclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, "", ReasonOf(err))
	assert.Nil(t, KindOf(err))
}

func TestRestoreRoundTrip(t *testing.T) {
	original := NotFound("booking_not_found", "booking: not found")
	restored := Restore(KindName(original), original.Reason, original.Message)

	assert.ErrorIs(t, restored, ErrNotFound)
	assert.Equal(t, "booking_not_found", restored.Reason)
	assert.Equal(t, "booking: not found", restored.Error())

	assert.ErrorIs(t, Restore("mystery", "", "x"), ErrUpstream)
	assert.Equal(t, "", KindName(errors.New("plain")))
}
