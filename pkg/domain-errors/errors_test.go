package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeInsufficientFunds, "balance too low")
		assert.True(t, HasCode(err, CodeInsufficientFunds))
		assert.False(t, HasCode(err, CodeOnCooldown))
	})

	t.Run("matches wrapped code", func(t *testing.T) {
		inner := New(CodeUnknownCitizen, "no such citizen")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeUnknownCitizen))
	})

	t.Run("untagged error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	t.Run("returns outermost code", func(t *testing.T) {
		err := Wrap(New(CodeNotWanted, "no active record"), CodeInternal, "clear failed")
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("untagged defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeAlreadyWanted, "active record exists"))
		assert.Equal(t, CodeAlreadyWanted, CodeOf(err))
		assert.True(t, HasCode(err, CodeAlreadyWanted))
	})
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}
