package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "civica/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "civica-test")

	t.Run("valid token carries actor and capability", func(t *testing.T) {
		token, err := svc.GenerateToken("acct-123", true, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "acct-123", claims.ActorID)
		assert.True(t, claims.Authority)
	})

	t.Run("ordinary citizen token is not authority", func(t *testing.T) {
		token, err := svc.GenerateToken("acct-456", false, time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.False(t, claims.Authority)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := svc.GenerateToken("acct-123", false, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("token signed with a different key is rejected", func(t *testing.T) {
		other := NewService("other-key", "civica-test")
		token, err := other.GenerateToken("acct-123", true, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})
}
