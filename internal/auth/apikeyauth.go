package auth

import (
	"context"
	"time"

	"github.com/kartohq/iam/internal/apikey"
	"github.com/kartohq/iam/internal/domain/apikeydomain"
	"github.com/kartohq/iam/internal/domainerr"
)

// APIKeyLookup is the narrow read port this stage needs from the api_key
// postgres adapter (internal/adapters/postgres/apikey), kept here rather
// than importing the adapter directly so this package stays free of a
// concrete pgx dependency.
type APIKeyLookup interface {
	FindByPrefix(ctx context.Context, prefix string) ([]*apikeydomain.APIKey, error)
	RecordUsage(ctx context.Context, id string, at time.Time) error
}

// ValidateAPIKey implements stage 2b of spec.md §4.5: prefix lookup,
// constant-time verify against every candidate (collision-tolerant),
// revocation/expiry check, opportunistic last_used_at update. The
// response never distinguishes "no such key" from "wrong secret" — every
// failure path returns the same Unauthenticated reason.
func ValidateAPIKey(ctx context.Context, lookup APIKeyLookup, secret string) (*apikeydomain.APIKey, error) {
	if len(secret) < apikey.PrefixLength {
		return nil, unauthenticatedAPIKey()
	}

	prefix := secret[:apikey.PrefixLength]

	candidates, err := lookup.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	for _, k := range candidates {
		if !apikey.Verify(k.Hash, secret) {
			continue
		}

		if k.IsRevoked || k.IsExpired(now) {
			return nil, unauthenticatedAPIKey()
		}

		// Opportunistic: a failure here never fails the request.
		_ = lookup.RecordUsage(ctx, k.ID, now)

		return k, nil
	}

	return nil, unauthenticatedAPIKey()
}

func unauthenticatedAPIKey() error {
	return domainerr.NewUnauthenticated("api_key_verification_failed", "the supplied API key could not be verified")
}
