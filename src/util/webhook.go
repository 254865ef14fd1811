package util

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"finflow-server/src/plaid"

	"github.com/golang-jwt/jwt/v5"
)

// Webhook verification per Plaid's scheme: the Plaid-Verification header is
// an ES256 JWT whose claims carry a SHA-256 of the request body, signed with
// a per-kid JWK fetched from /webhook_verification_key/get.

const webhookMaxAge = 5 * time.Minute

type KeyFetcher interface {
	WebhookVerificationKey(ctx context.Context, kid string) (*plaid.WebhookKey, error)
}

type WebhookVerifier struct {
	keys KeyFetcher

	mu    sync.Mutex
	cache map[string]*plaid.WebhookKey
}

func NewWebhookVerifier(keys KeyFetcher) *WebhookVerifier {
	return &WebhookVerifier{
		keys:  keys,
		cache: make(map[string]*plaid.WebhookKey),
	}
}

// Verify checks the Plaid-Verification header against the raw request body.
func (v *WebhookVerifier) Verify(ctx context.Context, body []byte, verificationHeader string) error {
	if verificationHeader == "" {
		return errors.New("missing Plaid-Verification header")
	}

	parser := jwt.NewParser(jwt.WithLeeway(30 * time.Second))

	unverified, _, err := parser.ParseUnverified(verificationHeader, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("parse unverified token: %w", err)
	}
	if unverified.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return fmt.Errorf("unexpected alg %q (want ES256)", unverified.Method.Alg())
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return errors.New("missing kid in JWT header")
	}

	pubKey, err := v.publicKey(ctx, kid)
	if err != nil {
		return fmt.Errorf("get verification key: %w", err)
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(verificationHeader, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodES256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token: %w", err)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return errors.New("missing iat")
	}
	if time.Since(iat.Time) > webhookMaxAge {
		return errors.New("webhook token too old (>5m)")
	}

	wantHash, _ := claims["request_body_sha256"].(string)
	if wantHash == "" {
		return errors.New("missing request_body_sha256")
	}
	sum := sha256.Sum256(body)
	gotHex := strings.ToLower(hex.EncodeToString(sum[:]))
	if subtle.ConstantTimeCompare([]byte(gotHex), []byte(strings.ToLower(wantHash))) != 1 {
		return errors.New("body hash mismatch")
	}

	return nil
}

func (v *WebhookVerifier) publicKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	v.mu.Lock()
	key, ok := v.cache[kid]
	v.mu.Unlock()

	if !ok {
		fetched, err := v.keys.WebhookVerificationKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		key = fetched
		if key.Kid == kid {
			v.mu.Lock()
			v.cache[kid] = key
			v.mu.Unlock()
		}
	}

	return jwkToECDSAPublicKey(key)
}

func jwkToECDSAPublicKey(jwk *plaid.WebhookKey) (*ecdsa.PublicKey, error) {
	if jwk == nil || jwk.X == "" || jwk.Y == "" || jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, errors.New("invalid/unsupported JWK")
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
