package plaid

import (
	"context"

	"github.com/plaid/plaid-go/v41/plaid"
)

// WebhookKey is the subset of a JWK the webhook verifier needs.
type WebhookKey struct {
	Kid string
	Kty string
	Crv string
	X   string
	Y   string
}

// WebhookVerificationKey fetches the public key Plaid signed a webhook with.
func (c *APIClient) WebhookVerificationKey(ctx context.Context, kid string) (*WebhookKey, error) {
	req := *plaid.NewWebhookVerificationKeyGetRequest(kid)
	resp, _, err := c.api.PlaidApi.WebhookVerificationKeyGet(ctx).
		WebhookVerificationKeyGetRequest(req).
		Execute()
	if err != nil {
		return nil, classify(err)
	}
	key := resp.GetKey()
	return &WebhookKey{
		Kid: key.Kid,
		Kty: key.Kty,
		Crv: key.Crv,
		X:   key.X,
		Y:   key.Y,
	}, nil
}
