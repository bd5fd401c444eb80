package auth_test

import (
	"context"
	"testing"
	"time"

	"focusTracker/internal/auth"
	"focusTracker/internal/repository/user/inmemory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() *auth.Service {
	return auth.NewService(inmemory.NewUserStorage(), "test-secret", time.Hour)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc := newAuthService()

		session, err := svc.Register(ctx, "alice", "hunter2")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.NotEqual(t, uuid.Nil, session.UserID)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := newAuthService()

		_, err := svc.Register(ctx, "", "hunter2")
		assert.ErrorIs(t, err, auth.ErrMissingFields)
		_, err = svc.Register(ctx, "alice", "")
		assert.ErrorIs(t, err, auth.ErrMissingFields)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc := newAuthService()

		_, err := svc.Register(ctx, "alice", "hunter2")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "ALICE", "other")
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success round trip", func(t *testing.T) {
		svc := newAuthService()

		registered, err := svc.Register(ctx, "bob", "s3cret")
		require.NoError(t, err)

		session, err := svc.Login(ctx, "bob", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, registered.UserID, session.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := newAuthService()

		_, err := svc.Register(ctx, "bob", "s3cret")
		require.NoError(t, err)
		_, err = svc.Login(ctx, "bob", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newAuthService()

		_, err := svc.Login(ctx, "nobody", "whatever")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_ParseToken(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	session, err := svc.Register(ctx, "carol", "pw")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		userID, err := svc.ParseToken(session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.UserID, userID)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ParseToken("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewService(inmemory.NewUserStorage(), "other-secret", time.Hour)
		foreign, err := other.Register(ctx, "dave", "pw")
		require.NoError(t, err)

		_, err = svc.ParseToken(foreign.Token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := auth.Claims{
			UserID: uuid.New().String(),
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ParseToken(expired)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
			UserID: uuid.New().String(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ParseToken(unsigned)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
