// Package workspace is the Postgres adapter for the Workspace aggregate
// (spec.md §4.1/§6.1).
package workspace

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	workspacedomain "github.com/kartohq/iam/internal/domain/workspace"
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

// Create persists a new Workspace. The partial unique index on
// (tenant_id) WHERE is_root backstops the one-root-per-tenant invariant
// at the database level (spec.md §6.1); a violation surfaces as
// domainerr.DuplicateName.
func (r *Repository) Create(ctx context.Context, w *workspacedomain.Workspace) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "workspace", w.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := insertWorkspaceQuery(w)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "workspace", w.Name)
	}

	for _, evt := range w.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "workspace", w.ID); err != nil {
			return err
		}
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "workspace", w.Name)
}

func insertWorkspaceQuery(w *workspacedomain.Workspace) (string, []any, error) {
	return psql.Insert("workspaces").
		Columns("id", "tenant_id", "name", "parent_id", "is_root", "created_at", "updated_at").
		Values(w.ID, w.TenantID, w.Name, w.ParentID, w.IsRoot, w.CreatedAt, w.UpdatedAt).
		ToSql()
}

// Delete removes the row after w.Delete(false) has recorded
// WorkspaceDeleted. The schema's ON DELETE RESTRICT on parent_id is the
// backstop if ChildCount was stale.
func (r *Repository) Delete(ctx context.Context, w *workspacedomain.Workspace) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "workspace", w.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, evt := range w.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "workspace", w.ID); err != nil {
			return err
		}
	}

	del, delArgs, err := deleteWorkspaceQuery(w.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
		return domainerr.FromPostgres(err, "workspace", w.Name)
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "workspace", w.Name)
}

func deleteWorkspaceQuery(id string) (string, []any, error) {
	return psql.Delete("workspaces").Where(sq.Eq{"id": id}).ToSql()
}

func childCountQuery(id string) (string, []any, error) {
	return psql.Select("count(*)").From("workspaces").Where(sq.Eq{"parent_id": id}).ToSql()
}

// ChildCount reports how many workspaces have id as their parent, used by
// the service layer to populate Workspace.Delete(hasChildren).
func (r *Repository) ChildCount(ctx context.Context, id string) (int, error) {
	query, args, err := childCountQuery(id)
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, domainerr.FromPostgres(err, "workspace", id)
	}

	return n, nil
}

func findWorkspaceQuery(id string) (string, []any, error) {
	return psql.Select("tenant_id", "name", "parent_id", "is_root", "created_at", "updated_at").
		From("workspaces").
		Where(sq.Eq{"id": id}).
		ToSql()
}

func (r *Repository) FindByID(ctx context.Context, id string) (*workspacedomain.Workspace, error) {
	query, args, err := findWorkspaceQuery(id)
	if err != nil {
		return nil, err
	}

	var w workspacedomain.Workspace
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&w.TenantID, &w.Name, &w.ParentID, &w.IsRoot, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, domainerr.FromPostgres(err, "workspace", id)
	}

	return workspacedomain.Rehydrate(id, w.TenantID, w.Name, w.ParentID, w.IsRoot, w.CreatedAt, w.UpdatedAt), nil
}
