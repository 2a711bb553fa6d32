package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "ticket not found")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsNotFound(err))

	wrapped := Wrap(KindPersistence, "insert failed", errors.New("connection reset"))
	assert.Equal(t, KindPersistence, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "insert failed")
	assert.Contains(t, wrapped.Error(), "connection reset")

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindNotConnected, "calendar not connected")
	outer := fmt.Errorf("sync failed: %w", inner)
	assert.True(t, IsNotConnected(outer))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindExternalService, "webhook", cause)
	assert.ErrorIs(t, err, cause)
}
