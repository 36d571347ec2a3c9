package auth

import (
	"context"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/authztypes"
	tenantdomain "github.com/kartohq/iam/internal/domain/tenant"
	"github.com/kartohq/iam/internal/domainerr"
)

// TenantSource records how a token-path tenant id was resolved, only
// relevant for deciding the Forbidden-vs-bootstrap branch of stage 4.
type TenantSource int

const (
	tenantSourceHeader TenantSource = iota
	tenantSourceDefault
)

// TenantGateway is the narrow port onto the tenant aggregate this stage
// needs: load for membership checks, save to persist first-login
// bootstrapping (spec.md §4.5 stage 4).
type TenantGateway interface {
	FindByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
	Save(ctx context.Context, t *tenantdomain.Tenant) error
}

// TenantResolutionConfig carries the ambient settings stage 4 needs
// (spec.md §4.5/§6.4).
type TenantResolutionConfig struct {
	SingleTenantMode bool
	DefaultTenantID  string
}

// ResolveTenant implements stage 4 of spec.md §4.5 for the token path.
// The API-key path never calls this — the tenant is taken directly from
// api_key.tenant_id (see ResolveTenantForAPIKey).
func ResolveTenant(ctx context.Context, tenants TenantGateway, engine authz.Engine, cfg TenantResolutionConfig, userID, headerTenantID string) (string, error) {
	var tenantID string
	var source TenantSource

	if headerTenantID != "" {
		tenantID = headerTenantID
		source = tenantSourceHeader
	} else if cfg.SingleTenantMode {
		tenantID = cfg.DefaultTenantID
		source = tenantSourceDefault
	} else {
		return "", domainerr.NewTenantContextMissing()
	}

	allowed, err := engine.CheckPermission(ctx,
		authztypes.FormatResource(authztypes.ResourceTenant, tenantID),
		string(authztypes.PermissionView),
		authztypes.FormatResource(authztypes.ResourceUser, userID),
	)
	if err != nil {
		return "", err
	}

	if allowed {
		return tenantID, nil
	}

	if source == tenantSourceHeader {
		return "", domainerr.NewForbidden("you do not have access to the requested tenant")
	}

	// First-login bootstrapping (spec.md §4.5 stage 4): single-tenant
	// mode, default tenant, user not yet a member — add them and let the
	// outbox propagate the relationship asynchronously.
	if err := bootstrapFirstLogin(ctx, tenants, tenantID, userID); err != nil {
		return "", err
	}

	return tenantID, nil
}

func bootstrapFirstLogin(ctx context.Context, tenants TenantGateway, tenantID, userID string) error {
	t, err := tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := t.AddMember(userID, authztypes.RoleMember); err != nil {
		return err
	}

	return tenants.Save(ctx, t)
}

// ResolveTenantForAPIKey implements the API-key branch of stage 4: the
// tenant is whatever the key was issued for; any X-Tenant-Id header is
// ignored outright, never compared, never causing an error.
func ResolveTenantForAPIKey(apiKeyTenantID string) string {
	return apiKeyTenantID
}
