package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppos/internal/domain"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	user := domain.User{ID: "u1", Email: "owner@shop.test"}

	token, issued, err := issuer.Issue(user)
	require.NoError(t, err)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "owner@shop.test", got.Email)
	assert.Equal(t, issued.TokenID, got.TokenID)
	assert.WithinDuration(t, issued.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestIssuer_Rejects(t *testing.T) {
	issuer := NewIssuer(secret, time.Hour)
	token, _, err := issuer.Issue(domain.User{ID: "u1"})
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewIssuer("another-secret-another-secret-xx", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		later := NewIssuer(secret, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticator_Revocation(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(secret, time.Hour)
	revoker := NewMemoryRevoker()
	authn := NewAuthenticator(issuer, revoker)

	token, p, err := issuer.Issue(domain.User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)

	got, err := authn.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Email)

	require.NoError(t, revoker.Revoke(ctx, p.TokenID, p.ExpiresAt))
	_, err = authn.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestMemoryRevoker_ForgetsExpired(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, r.Revoke(ctx, "past", now.Add(-time.Minute)))

	revoked, _ := r.IsRevoked(ctx, "a")
	assert.True(t, revoked)
	revoked, _ = r.IsRevoked(ctx, "past")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = r.IsRevoked(ctx, "a")
	assert.False(t, revoked)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Email: "a@b.c"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", p.Email)
}

func TestRedisLimiterAndRevoker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	key := uuid.NewString()
	limiter := NewRedisLimiter(client, 2, time.Minute)
	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "attempt %d", i+1)
	}

	revoker := NewRedisRevoker(client)
	require.NoError(t, revoker.Revoke(ctx, key, time.Now().Add(time.Minute)))
	revoked, err := revoker.IsRevoked(ctx, key)
	require.NoError(t, err)
	assert.True(t, revoked)
}
