// Package auth implements C5 (spec.md §4.5): credential classification,
// JIT user provisioning, tenant resolution, and principal emission. Token
// validation itself lives in the token subpackage; the fiber middleware
// that chains the stages is Authenticate in internal/adapters/http.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Kind is the classified credential kind (spec.md §4.5 stage 1).
type Kind int

const (
	KindUnknown Kind = iota
	KindToken
	KindAPIKey
)

// Classify inspects the Authorization header and an optional API-key
// secret carried in a request-specific location (header or body field,
// resolved by the caller before calling Classify) and decides which
// validation path to take.
func Classify(authorizationHeader, apiKeySecret, apiKeyTag string) (Kind, string) {
	if tok, ok := bearerToken(authorizationHeader); ok && looksLikeJWT(tok) {
		return KindToken, tok
	}

	if apiKeySecret != "" && strings.HasPrefix(apiKeySecret, apiKeyTag) {
		return KindAPIKey, apiKeySecret
	}

	return KindUnknown, ""
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix)), true
}

// looksLikeJWT checks the token parses into three dot-separated segments
// without verifying anything — a cheap, non-cryptographic shape check so
// classification doesn't depend on validation succeeding (spec.md §4.5
// stage 1: "the token is a well-formed JWT").
func looksLikeJWT(tok string) bool {
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(tok, jwt.MapClaims{})
	return err == nil
}
