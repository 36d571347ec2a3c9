package token

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwk"

	"github.com/kartohq/iam/internal/domainerr"
)

// Config configures validation (spec.md §6.4): the expected issuer, the
// audience the token's aud claim must contain, and the claim names
// carrying user_id/username. Audience is matched exactly as given; there
// is no fallback to a client id when it is empty.
type Config struct {
	Issuer         string
	Audience       string
	UserIDClaim    string
	UsernameClaim  string
}

// DefaultConfig returns the spec.md §4.5/§6.4 default claim names.
func DefaultConfig(issuer, audience string) Config {
	return Config{
		Issuer:        issuer,
		Audience:      audience,
		UserIDClaim:   "sub",
		UsernameClaim: "preferred_username",
	}
}

// Claims is the subset of token claims the pipeline needs past validation.
type Claims struct {
	UserID   string
	Username string
}

// Validator verifies RS256-signed tokens against a JWKS cache.
type Validator struct {
	jwks *JWKSCache
	cfg  Config
}

func NewValidator(jwks *JWKSCache, cfg Config) *Validator {
	return &Validator{jwks: jwks, cfg: cfg}
}

// Validate runs stage 2a of spec.md §4.5: algorithm check, JWKS-backed
// signature verification, exp/iat/iss/aud checks, and claim extraction.
// Token failures are domainerr.Unauthenticated values carrying a reason;
// expiry, not-yet-valid and a future issued-at all share the reason
// "expired". A JWKS fetch failure is returned as domainerr.JWKSFetchFailed.
func (v *Validator) Validate(ctx context.Context, rawToken string) (Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return Claims{}, domainerr.NewUnauthenticated("malformed", "token could not be parsed")
	}

	if unverified.Method.Alg() != "RS256" {
		return Claims{}, domainerr.NewUnauthenticated("invalid_algorithm", "only RS256 tokens are accepted")
	}

	kid, _ := unverified.Header["kid"].(string)

	set, err := v.jwks.Get(ctx, v.cfg.Issuer)
	if err != nil {
		return Claims{}, err
	}

	key, ok := lookupKey(set, kid)
	if !ok {
		return Claims{}, domainerr.NewUnauthenticated("invalid_signature", "no matching key for token")
	}

	parsed, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != "RS256" {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithIssuedAt())
	if err != nil || !parsed.Valid {
		return Claims{}, classifyVerifyError(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, domainerr.NewUnauthenticated("malformed", "token claims could not be read")
	}

	if iss, _ := claims.GetIssuer(); iss != v.cfg.Issuer {
		return Claims{}, domainerr.NewUnauthenticated("invalid_issuer", "token issuer does not match")
	}

	if !audienceMatches(claims, v.cfg.Audience) {
		return Claims{}, domainerr.NewUnauthenticated("invalid_audience", "token audience does not match")
	}

	userID, _ := claims[v.cfg.UserIDClaim].(string)
	if strings.TrimSpace(userID) == "" {
		return Claims{}, domainerr.NewUnauthenticated("missing_claim", fmt.Sprintf("token is missing the %q claim", v.cfg.UserIDClaim))
	}

	username, _ := claims[v.cfg.UsernameClaim].(string)

	return Claims{UserID: userID, Username: username}, nil
}

func lookupKey(set jwk.Set, kid string) (*rsa.PublicKey, bool) {
	var target jwk.Key
	var found bool

	if kid != "" {
		target, found = set.LookupKeyID(kid)
	}

	if !found {
		if set.Len() != 1 {
			return nil, false
		}
		target, found = set.Get(0)
		if !found {
			return nil, false
		}
	}

	var raw any
	if err := target.Raw(&raw); err != nil {
		return nil, false
	}

	pub, ok := raw.(*rsa.PublicKey)
	return pub, ok
}

func audienceMatches(claims jwt.MapClaims, expected string) bool {
	aud, err := claims.GetAudience()
	if err != nil {
		return false
	}

	for _, a := range aud {
		if a == expected {
			return true
		}
	}

	return false
}

func classifyVerifyError(err error) error {
	switch {
	case err == nil:
		return domainerr.NewUnauthenticated("invalid_signature", "token signature is invalid")
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerr.NewUnauthenticated("expired", "token has expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return domainerr.NewUnauthenticated("expired", "token is not yet valid")
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return domainerr.NewUnauthenticated("expired", "token issued-at is in the future")
	default:
		return domainerr.NewUnauthenticated("invalid_signature", "token signature is invalid")
	}
}
