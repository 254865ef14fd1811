package plaid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	err := &ProviderError{Kind: KindCursorStale, Code: "INVALID_CURSOR", Err: errors.New("boom")}

	assert.True(t, IsKind(err, KindCursorStale))
	assert.False(t, IsKind(err, KindTransient))
	assert.False(t, IsKind(errors.New("plain"), KindCursorStale))
	assert.False(t, IsKind(nil, KindCursorStale))

	// Kind survives wrapping.
	wrapped := fmt.Errorf("sync item 4: %w", err)
	assert.True(t, IsKind(wrapped, KindCursorStale))
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &ProviderError{Kind: KindTransient, Err: inner}
	assert.ErrorIs(t, err, inner)
}

func TestClassifyNonPlaidErrorIsTransient(t *testing.T) {
	err := classify(errors.New("dial tcp: i/o timeout"))
	assert.True(t, IsKind(err, KindTransient))
	assert.Nil(t, classify(nil))
}

func TestPrettyCategory(t *testing.T) {
	assert.Equal(t, "Food & Drink", prettyCategory("FOOD_AND_DRINK"))
	assert.Equal(t, "Transportation", prettyCategory("TRANSPORTATION"))
	assert.Equal(t, "General Merchandise", prettyCategory("GENERAL_MERCHANDISE"))
	assert.Equal(t, "", prettyCategory(""))
}
