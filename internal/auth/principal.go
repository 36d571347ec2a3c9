package auth

// CredentialKind distinguishes how a Principal was authenticated
// (spec.md §3 glossary: Principal).
type CredentialKind string

const (
	CredentialOIDC    CredentialKind = "oidc"
	CredentialAPIKey  CredentialKind = "api_key"
)

// Principal is the immutable result of the auth pipeline (spec.md §4.5
// stage 5), bound to request scope and never mutated by downstream
// handlers.
type Principal struct {
	UserID         string
	Username       string
	TenantID       string
	CredentialKind CredentialKind
}
