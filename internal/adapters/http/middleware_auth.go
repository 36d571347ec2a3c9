package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kartohq/iam/internal/apikey"
	"github.com/kartohq/iam/internal/auth"
	"github.com/kartohq/iam/internal/auth/token"
	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/platform/log"
)

// principalLocalsKey is the fiber.Ctx.Locals key the bound Principal is
// stored under (spec.md §4.5 stage 5).
const principalLocalsKey = "iam.principal"

// AuthDependencies bundles every port the auth pipeline needs, collected
// here so bootstrap wires them once and the middleware stays a pure
// function of request + dependencies.
type AuthDependencies struct {
	Validator *token.Validator
	APIKeys   auth.APIKeyLookup
	Users     auth.UserProvisioner
	Tenants   auth.TenantGateway
	Engine    authz.Engine
	TenantCfg auth.TenantResolutionConfig
	APIKeyTag string
}

// Authenticate wires all five stages of spec.md §4.5 into a single fiber
// middleware, writing the resulting Principal to request locals for
// downstream handlers.
func Authenticate(deps AuthDependencies) fiber.Handler {
	tag := deps.APIKeyTag
	if tag == "" {
		tag = apikey.DefaultTag
	}

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		logger := log.FromContext(ctx)

		authHeader := c.Get(fiber.HeaderAuthorization)
		kind, credential := auth.Classify(authHeader, apiKeySecretFromHeader(authHeader, tag), tag)

		switch kind {
		case auth.KindToken:
			return authenticateToken(c, deps, credential)
		case auth.KindAPIKey:
			return authenticateAPIKey(c, deps, credential)
		default:
			logger.Debug("auth: no recognizable credential on request")
			return WithError(c, domainerr.NewUnauthenticated("no_credential", "no bearer token or API key was presented"))
		}
	}
}

func authenticateToken(c *fiber.Ctx, deps AuthDependencies, rawToken string) error {
	claims, err := deps.Validator.Validate(c.UserContext(), rawToken)
	if err != nil {
		return WithError(c, err)
	}

	if err := auth.ProvisionUser(c.UserContext(), deps.Users, claims.UserID, claims.Username); err != nil {
		return WithError(c, err)
	}

	tenantID, err := auth.ResolveTenant(c.UserContext(), deps.Tenants, deps.Engine, deps.TenantCfg, claims.UserID, c.Get("X-Tenant-Id"))
	if err != nil {
		return WithError(c, err)
	}

	c.Locals(principalLocalsKey, auth.Principal{
		UserID:         claims.UserID,
		Username:       claims.Username,
		TenantID:       tenantID,
		CredentialKind: auth.CredentialOIDC,
	})

	return c.Next()
}

func authenticateAPIKey(c *fiber.Ctx, deps AuthDependencies, secret string) error {
	k, err := auth.ValidateAPIKey(c.UserContext(), deps.APIKeys, secret)
	if err != nil {
		return WithError(c, err)
	}

	tenantID := auth.ResolveTenantForAPIKey(k.TenantID)

	c.Locals(principalLocalsKey, auth.Principal{
		UserID:         k.OwnerUserID,
		TenantID:       tenantID,
		CredentialKind: auth.CredentialAPIKey,
	})

	return c.Next()
}

// PrincipalFromContext retrieves the Principal bound by Authenticate. A
// handler reached without the middleware running first is a programming
// error, not a request error, so this panics rather than returning ok=false.
func PrincipalFromContext(c *fiber.Ctx) auth.Principal {
	p, ok := c.Locals(principalLocalsKey).(auth.Principal)
	if !ok {
		panic("http: PrincipalFromContext called without Authenticate middleware")
	}

	return p
}

// apiKeySecretFromHeader recognizes the `Authorization: ApiKey <secret>`
// scheme (spec.md §4.5 stage 1: "a header ... carries an API-key secret").
func apiKeySecretFromHeader(header, tag string) string {
	const scheme = "ApiKey "
	if !strings.HasPrefix(header, scheme) {
		return ""
	}

	secret := strings.TrimSpace(strings.TrimPrefix(header, scheme))
	if !strings.HasPrefix(secret, tag) {
		return ""
	}

	return secret
}
