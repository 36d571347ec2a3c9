package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartohq/iam/internal/authz"
	tenantdomain "github.com/kartohq/iam/internal/domain/tenant"
)

type fakeTenantGateway struct {
	tenants map[string]*tenantdomain.Tenant
	saved   []*tenantdomain.Tenant
}

func (f *fakeTenantGateway) FindByID(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	return f.tenants[id], nil
}

func (f *fakeTenantGateway) Save(ctx context.Context, t *tenantdomain.Tenant) error {
	f.saved = append(f.saved, t)
	return nil
}

type fakeEngine struct {
	allow bool
}

func (f *fakeEngine) Apply(ctx context.Context, op authz.Op) error { return nil }

func (f *fakeEngine) CheckPermission(ctx context.Context, resource, permission, subject string) (bool, error) {
	return f.allow, nil
}

func TestResolveTenant_HeaderPresentAndAllowed(t *testing.T) {
	gw := &fakeTenantGateway{tenants: map[string]*tenantdomain.Tenant{}}
	eng := &fakeEngine{allow: true}

	id, err := ResolveTenant(context.Background(), gw, eng, TenantResolutionConfig{}, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
}

func TestResolveTenant_HeaderPresentAndForbidden(t *testing.T) {
	gw := &fakeTenantGateway{tenants: map[string]*tenantdomain.Tenant{}}
	eng := &fakeEngine{allow: false}

	_, err := ResolveTenant(context.Background(), gw, eng, TenantResolutionConfig{}, "u1", "t1")
	assert.Error(t, err)
}

func TestResolveTenant_NoHeaderMultiTenantModeFailsWithMissingContext(t *testing.T) {
	gw := &fakeTenantGateway{tenants: map[string]*tenantdomain.Tenant{}}
	eng := &fakeEngine{allow: true}

	_, err := ResolveTenant(context.Background(), gw, eng, TenantResolutionConfig{SingleTenantMode: false}, "u1", "")
	assert.Error(t, err)
}

func TestResolveTenant_NoHeaderSingleTenantModeBootstrapsFirstLogin(t *testing.T) {
	tn, err := tenantdomain.New("Default", "admin-user")
	require.NoError(t, err)
	tn.CollectEvents()

	gw := &fakeTenantGateway{tenants: map[string]*tenantdomain.Tenant{"default-tenant": tn}}
	eng := &fakeEngine{allow: false}

	id, err := ResolveTenant(context.Background(), gw, eng, TenantResolutionConfig{SingleTenantMode: true, DefaultTenantID: "default-tenant"}, "new-user", "")
	require.NoError(t, err)
	assert.Equal(t, "default-tenant", id)
	require.Len(t, gw.saved, 1)
	assert.Len(t, gw.saved[0].Members, 2)
}

func TestResolveTenantForAPIKey_IgnoresHeaderEntirely(t *testing.T) {
	assert.Equal(t, "key-tenant", ResolveTenantForAPIKey("key-tenant"))
}
