// Package tenant is the Postgres adapter for the Tenant aggregate
// (spec.md §4.1/§6.1), persisting the aggregate and appending its pending
// domain events inside one transaction (design note 9: explicit
// unit-of-work, not an ORM-level hook). Grounded on the teacher's
// postgres-adapter layering (components/onboarding/internal/adapters/
// postgres/organization), adapted from database/sql to pgx.
package tenant

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/domain/authztypes"
	tenantdomain "github.com/kartohq/iam/internal/domain/tenant"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/outbox"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository persists Tenant aggregates and their membership rows.
type Repository struct {
	pool *pgxpool.Pool
	outb outbox.Repository
}

func New(pool *pgxpool.Pool, outb outbox.Repository) *Repository {
	return &Repository{pool: pool, outb: outb}
}

// Save persists a newly created or mutated Tenant and appends its pending
// events to the outbox, all inside one transaction.
func (r *Repository) Save(ctx context.Context, t *tenantdomain.Tenant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "tenant", t.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert, args, err := upsertTenantQuery(t.ID, t.Name)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, upsert, args...); err != nil {
		return domainerr.FromPostgres(err, "tenant", t.Name)
	}

	if err := r.replaceMembers(ctx, tx, t); err != nil {
		return err
	}

	for _, evt := range t.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "tenant", t.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domainerr.FromPostgres(err, "tenant", t.Name)
	}

	return nil
}

// upsertTenantQuery builds the insert-or-rename tenant row.
func upsertTenantQuery(id, name string) (string, []any, error) {
	return psql.Insert("tenants").
		Columns("id", "name").
		Values(id, name).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name").
		ToSql()
}

func deleteTenantMembersQuery(tenantID string) (string, []any, error) {
	return psql.Delete("tenant_members").Where(sq.Eq{"tenant_id": tenantID}).ToSql()
}

func insertTenantMemberQuery(tenantID, userID, role string) (string, []any, error) {
	return psql.Insert("tenant_members").
		Columns("tenant_id", "user_id", "role").
		Values(tenantID, userID, role).
		ToSql()
}

// replaceMembers rewrites tenant_members to match the in-memory aggregate
// state: simplest correct approach for a membership list this small (a
// tenant's admin roster), avoiding a diff algorithm.
func (r *Repository) replaceMembers(ctx context.Context, tx pgx.Tx, t *tenantdomain.Tenant) error {
	del, delArgs, err := deleteTenantMembersQuery(t.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
		return domainerr.FromPostgres(err, "tenant", t.Name)
	}

	for _, m := range t.Members {
		ins, insArgs, err := insertTenantMemberQuery(t.ID, m.UserID, string(m.Role))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, ins, insArgs...); err != nil {
			return domainerr.FromPostgres(err, "tenant", t.Name)
		}
	}

	return nil
}

func findTenantQuery(id string) (string, []any, error) {
	return psql.Select("name").From("tenants").Where(sq.Eq{"id": id}).ToSql()
}

// FindByID loads a Tenant by id, or domainerr.NotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	query, args, err := findTenantQuery(id)
	if err != nil {
		return nil, err
	}

	var name string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&name); err != nil {
		return nil, domainerr.FromPostgres(err, "tenant", id)
	}

	members, err := r.membersOf(ctx, id)
	if err != nil {
		return nil, err
	}

	return tenantdomain.Rehydrate(id, name, members), nil
}

func membersOfQuery(tenantID string) (string, []any, error) {
	return psql.Select("user_id", "role").
		From("tenant_members").
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
}

func (r *Repository) membersOf(ctx context.Context, tenantID string) ([]tenantdomain.Member, error) {
	query, args, err := membersOfQuery(tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domainerr.FromPostgres(err, "tenant", tenantID)
	}
	defer rows.Close()

	var members []tenantdomain.Member
	for rows.Next() {
		var m tenantdomain.Member
		var role string
		if err := rows.Scan(&m.UserID, &role); err != nil {
			return nil, err
		}
		m.Role = authztypes.Role(role)
		members = append(members, m)
	}

	return members, rows.Err()
}
