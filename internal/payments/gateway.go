package payments

import "context"

// Verifier confirms a payment reference with the provider.
//
// A non-2xx provider answer is not an error: it comes back in the
// Verification so callers can branch on it. Errors are transport failures.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*Verification, error)
}
