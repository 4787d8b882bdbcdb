package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/stretchr/testify/require"
)

func signedAccessToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestClient_Status(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	credentials.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { credentials.NowTimeFunc = time.Now })

	f := setupTestFixture(t)
	status, err := f.client.Status()
	require.NoError(t, err)
	require.False(t, status.Authenticated)

	access := signedAccessToken(t, "admin-7", now.Add(time.Hour))
	f.api.set(func(api *fakeAPI) { api.login = credentials.Credential{AccessToken: access, RefreshToken: "r1"} })
	require.NoError(t, f.client.Login(context.Background(), "admin", "secret"))

	status, err = f.client.Status()
	require.NoError(t, err)
	require.True(t, status.Authenticated)
	require.Equal(t, "admin-7", status.Subject)
	require.True(t, status.ExpiresAt.Equal(now.Add(time.Hour)))
	require.False(t, status.Expired)

	now = now.Add(2 * time.Hour)
	status, err = f.client.Status()
	require.NoError(t, err)
	require.True(t, status.Expired)
}

func TestClient_StatusWithOpaqueToken(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.client.Login(context.Background(), "admin", "secret"))

	status, err := f.client.Status()
	require.NoError(t, err)
	require.True(t, status.Authenticated)
	require.Empty(t, status.Subject)
	require.False(t, status.Expired)
}
