// Package group is the Postgres adapter for the Group aggregate (spec.md
// §4.1/§6.1), mirroring internal/adapters/postgres/tenant's shape.
package group

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/domain/authztypes"
	groupdomain "github.com/kartohq/iam/internal/domain/group"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/outbox"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	pool *pgxpool.Pool
	outb outbox.Repository
}

func New(pool *pgxpool.Pool, outb outbox.Repository) *Repository {
	return &Repository{pool: pool, outb: outb}
}

func (r *Repository) Save(ctx context.Context, g *groupdomain.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert, args, err := upsertGroupQuery(g.ID, g.TenantID, g.Name)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, upsert, args...); err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}

	if err := r.replaceMembers(ctx, tx, g); err != nil {
		return err
	}

	for _, evt := range g.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "group", g.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}

	return nil
}

func upsertGroupQuery(id, tenantID, name string) (string, []any, error) {
	return psql.Insert("groups").
		Columns("id", "tenant_id", "name").
		Values(id, tenantID, name).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name").
		ToSql()
}

func deleteGroupMembersQuery(groupID string) (string, []any, error) {
	return psql.Delete("group_members").Where(sq.Eq{"group_id": groupID}).ToSql()
}

func insertGroupMemberQuery(groupID, userID, role string) (string, []any, error) {
	return psql.Insert("group_members").
		Columns("group_id", "user_id", "role").
		Values(groupID, userID, role).
		ToSql()
}

func (r *Repository) replaceMembers(ctx context.Context, tx pgx.Tx, g *groupdomain.Group) error {
	del, delArgs, err := deleteGroupMembersQuery(g.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}

	for _, m := range g.Members {
		ins, insArgs, err := insertGroupMemberQuery(g.ID, m.UserID, string(m.Role))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, ins, insArgs...); err != nil {
			return domainerr.FromPostgres(err, "group", g.Name)
		}
	}

	return nil
}

// Delete removes the group row (after the caller has called g.Delete() to
// record GroupDeleted) and appends the pending event, in one transaction.
func (r *Repository) Delete(ctx context.Context, g *groupdomain.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, evt := range g.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "group", g.ID); err != nil {
			return err
		}
	}

	del, delArgs, err := deleteGroupQuery(g.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
		return domainerr.FromPostgres(err, "group", g.Name)
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "group", g.Name)
}

func deleteGroupQuery(id string) (string, []any, error) {
	return psql.Delete("groups").Where(sq.Eq{"id": id}).ToSql()
}

func findGroupQuery(id string) (string, []any, error) {
	return psql.Select("tenant_id", "name").From("groups").Where(sq.Eq{"id": id}).ToSql()
}

func (r *Repository) FindByID(ctx context.Context, id string) (*groupdomain.Group, error) {
	query, args, err := findGroupQuery(id)
	if err != nil {
		return nil, err
	}

	var tenantID, name string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&tenantID, &name); err != nil {
		return nil, domainerr.FromPostgres(err, "group", id)
	}

	members, err := r.membersOf(ctx, id)
	if err != nil {
		return nil, err
	}

	return groupdomain.Rehydrate(id, tenantID, name, members), nil
}

func groupMembersOfQuery(groupID string) (string, []any, error) {
	return psql.Select("user_id", "role").
		From("group_members").
		Where(sq.Eq{"group_id": groupID}).
		ToSql()
}

func (r *Repository) membersOf(ctx context.Context, groupID string) ([]groupdomain.Member, error) {
	query, args, err := groupMembersOfQuery(groupID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domainerr.FromPostgres(err, "group", groupID)
	}
	defer rows.Close()

	var members []groupdomain.Member
	for rows.Next() {
		var m groupdomain.Member
		var role string
		if err := rows.Scan(&m.UserID, &role); err != nil {
			return nil, err
		}
		m.Role = authztypes.Role(role)
		members = append(members, m)
	}

	return members, rows.Err()
}
