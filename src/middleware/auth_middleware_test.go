package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuthSetsIdentity(t *testing.T) {
	token := signedToken(t, testSecret, jwt.MapClaims{
		"user_id":  float64(42),
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	var gotID int64
	var gotName string
	handler := JWTAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		gotName, _ = UsernameFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotID)
	assert.Equal(t, "alice", gotName)
}

func TestJWTAuthRejections(t *testing.T) {
	expired := signedToken(t, testSecret, jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signedToken(t, "other-secret", jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	noUserID := signedToken(t, testSecret, jwt.MapClaims{
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
		{"missing user_id claim", "Bearer " + noUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := JWTAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestUserIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)
}
