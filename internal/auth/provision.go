package auth

import "context"

// UserProvisioner is the narrow write port onto the users table (the
// postgres user adapter), used only by the token path (spec.md §4.5
// stage 3 — "skip for API-key path: the user already exists by
// construction").
type UserProvisioner interface {
	EnsureProvisioned(ctx context.Context, id, username string) error
}

// ProvisionUser runs stage 3: JIT-creates or updates the user row for a
// token-authenticated principal. Runs in its own short transaction inside
// the adapter's EnsureProvisioned upsert, not the request's surrounding
// transaction, per spec.md §4.5 stage 3.
func ProvisionUser(ctx context.Context, users UserProvisioner, userID, username string) error {
	return users.EnsureProvisioned(ctx, userID, username)
}
