package util

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-server/src/plaid"
)

type fakeKeyFetcher struct {
	key   *plaid.WebhookKey
	err   error
	calls int
}

func (f *fakeKeyFetcher) WebhookVerificationKey(_ context.Context, _ string) (*plaid.WebhookKey, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.key, nil
}

func newTestKey(t *testing.T, kid string) (*ecdsa.PrivateKey, *plaid.WebhookKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return priv, &plaid.WebhookKey{
		Kid: kid,
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(priv.PublicKey.X.Bytes()),
		Y:   base64.RawURLEncoding.EncodeToString(priv.PublicKey.Y.Bytes()),
	}
}

func signHeader(t *testing.T, priv *ecdsa.PrivateKey, kid string, body []byte, issuedAt time.Time) string {
	t.Helper()
	sum := sha256.Sum256(body)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iat":                 issuedAt.Unix(),
		"request_body_sha256": hex.EncodeToString(sum[:]),
	})
	token.Header["kid"] = kid

	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestWebhookVerify(t *testing.T) {
	priv, jwk := newTestKey(t, "kid-1")
	fetcher := &fakeKeyFetcher{key: jwk}
	verifier := NewWebhookVerifier(fetcher)

	body := []byte(`{"webhook_type":"TRANSACTIONS"}`)
	header := signHeader(t, priv, "kid-1", body, time.Now())

	assert.NoError(t, verifier.Verify(context.Background(), body, header))

	// Second verification hits the kid cache, not the fetcher.
	assert.NoError(t, verifier.Verify(context.Background(), body, header))
	assert.Equal(t, 1, fetcher.calls)
}

func TestWebhookVerifyRejectsTamperedBody(t *testing.T) {
	priv, jwk := newTestKey(t, "kid-1")
	verifier := NewWebhookVerifier(&fakeKeyFetcher{key: jwk})

	header := signHeader(t, priv, "kid-1", []byte("original"), time.Now())
	err := verifier.Verify(context.Background(), []byte("tampered"), header)
	assert.ErrorContains(t, err, "hash mismatch")
}

func TestWebhookVerifyRejectsOldToken(t *testing.T) {
	priv, jwk := newTestKey(t, "kid-1")
	verifier := NewWebhookVerifier(&fakeKeyFetcher{key: jwk})

	body := []byte("body")
	header := signHeader(t, priv, "kid-1", body, time.Now().Add(-10*time.Minute))
	err := verifier.Verify(context.Background(), body, header)
	assert.ErrorContains(t, err, "too old")
}

func TestWebhookVerifyRejectsWrongKey(t *testing.T) {
	priv, _ := newTestKey(t, "kid-1")
	_, otherJWK := newTestKey(t, "kid-1")
	verifier := NewWebhookVerifier(&fakeKeyFetcher{key: otherJWK})

	body := []byte("body")
	header := signHeader(t, priv, "kid-1", body, time.Now())
	assert.Error(t, verifier.Verify(context.Background(), body, header))
}

func TestWebhookVerifyRejectsHS256(t *testing.T) {
	_, jwk := newTestKey(t, "kid-1")
	verifier := NewWebhookVerifier(&fakeKeyFetcher{key: jwk})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iat": time.Now().Unix()})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	verr := verifier.Verify(context.Background(), []byte("body"), signed)
	assert.ErrorContains(t, verr, "ES256")
}

func TestWebhookVerifyMissingHeader(t *testing.T) {
	verifier := NewWebhookVerifier(&fakeKeyFetcher{})
	assert.Error(t, verifier.Verify(context.Background(), []byte("body"), ""))
}

func TestWebhookVerifyKeyFetchFailure(t *testing.T) {
	priv, _ := newTestKey(t, "kid-1")
	verifier := NewWebhookVerifier(&fakeKeyFetcher{err: errors.New("plaid down")})

	body := []byte("body")
	header := signHeader(t, priv, "kid-1", body, time.Now())
	err := verifier.Verify(context.Background(), body, header)
	assert.ErrorContains(t, err, "verification key")
}
