package plaid

import (
	"errors"
	"fmt"

	"github.com/plaid/plaid-go/v41/plaid"
)

// ErrorKind is the closed set of provider failure modes the rest of the
// server programs against. Nothing outside this package inspects raw Plaid
// error codes.
type ErrorKind int

const (
	// KindTransient covers anything without a defined recovery strategy.
	// The current pass fails and the stored cursor is left untouched.
	KindTransient ErrorKind = iota
	// KindCredentialExpired means the user must re-link the institution.
	KindCredentialExpired
	// KindInvalidCredential means the stored access token is no longer
	// accepted; the user must re-link.
	KindInvalidCredential
	// KindInvalidToken means a public token was malformed or expired.
	KindInvalidToken
	// KindCursorStale means upstream data mutated mid-pagination and the
	// stored cursor no longer matches server-side state. The caller must
	// restart pagination from a null cursor.
	KindCursorStale
	// KindMalformedRequest is a bug on our side, not retryable.
	KindMalformedRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredentialExpired:
		return "credential_expired"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindInvalidToken:
		return "invalid_token"
	case KindCursorStale:
		return "cursor_stale"
	case KindMalformedRequest:
		return "malformed_request"
	default:
		return "transient"
	}
}

type ProviderError struct {
	Kind ErrorKind
	Code string // provider error code when one was given
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plaid: %s (%s): %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("plaid: %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries the given provider error kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}

// classify maps a raw SDK error onto the closed ErrorKind taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		// Not a structured Plaid error (network failure, timeout, bad
		// gateway). Treat as transient; the cursor stays safe.
		return &ProviderError{Kind: KindTransient, Err: err}
	}

	code := plaidErr.GetErrorCode()
	kind := KindTransient
	switch code {
	case "ITEM_LOGIN_REQUIRED", "ITEM_LOCKED", "USER_SETUP_REQUIRED":
		kind = KindCredentialExpired
	case "INVALID_ACCESS_TOKEN", "INVALID_API_KEYS", "UNAUTHORIZED_ENVIRONMENT":
		kind = KindInvalidCredential
	case "INVALID_PUBLIC_TOKEN":
		kind = KindInvalidToken
	case "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION", "INVALID_CURSOR":
		kind = KindCursorStale
	case "INVALID_REQUEST", "INVALID_INPUT", "INVALID_FIELD", "MISSING_FIELDS", "UNKNOWN_FIELDS":
		kind = KindMalformedRequest
	}

	return &ProviderError{Kind: kind, Code: code, Err: err}
}
