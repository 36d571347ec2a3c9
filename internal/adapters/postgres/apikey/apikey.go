// Package apikey is the Postgres adapter for the APIKey aggregate
// (spec.md §4.1/§4.6/§6.1). Only prefix and hash are ever persisted —
// the plaintext secret never reaches this layer.
package apikey

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	apikeydomain "github.com/kartohq/iam/internal/domain/apikeydomain"
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

func (r *Repository) Create(ctx context.Context, k *apikeydomain.APIKey) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := insertAPIKeyQuery(k)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}

	for _, evt := range k.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "api_key", k.ID); err != nil {
			return err
		}
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "api_key", k.Name)
}

func insertAPIKeyQuery(k *apikeydomain.APIKey) (string, []any, error) {
	return psql.Insert("api_keys").
		Columns("id", "owner_user_id", "tenant_id", "name", "prefix", "hash", "created_at", "expires_at", "is_revoked").
		Values(k.ID, k.OwnerUserID, k.TenantID, k.Name, k.Prefix, k.Hash, k.CreatedAt, k.ExpiresAt, k.IsRevoked).
		ToSql()
}

func revokeAPIKeyQuery(id string) (string, []any, error) {
	return psql.Update("api_keys").Set("is_revoked", true).Where(sq.Eq{"id": id}).ToSql()
}

// Revoke persists IsRevoked and appends the pending APIKeyRevoked event.
func (r *Repository) Revoke(ctx context.Context, k *apikeydomain.APIKey) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args, err := revokeAPIKeyQuery(k.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}

	for _, evt := range k.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "api_key", k.ID); err != nil {
			return err
		}
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "api_key", k.Name)
}

// Delete removes the row after k.Delete() has recorded APIKeyDeleted.
func (r *Repository) Delete(ctx context.Context, k *apikeydomain.APIKey) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, evt := range k.CollectEvents() {
		if err := r.outb.Append(ctx, tx, evt, "api_key", k.ID); err != nil {
			return err
		}
	}

	del, delArgs, err := deleteAPIKeyQuery(k.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
		return domainerr.FromPostgres(err, "api_key", k.Name)
	}

	return domainerr.FromPostgres(tx.Commit(ctx), "api_key", k.Name)
}

func deleteAPIKeyQuery(id string) (string, []any, error) {
	return psql.Delete("api_keys").Where(sq.Eq{"id": id}).ToSql()
}

func recordUsageQuery(id string, at time.Time) (string, []any, error) {
	return psql.Update("api_keys").Set("last_used_at", at).Where(sq.Eq{"id": id}).ToSql()
}

// RecordUsage persists LastUsedAt. No event is appended (spec.md §4.1:
// usage is not authorization-significant).
func (r *Repository) RecordUsage(ctx context.Context, id string, at time.Time) error {
	query, args, err := recordUsageQuery(id, at)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "api_key", id)
	}

	return nil
}

func findByPrefixQuery(prefix string) (string, []any, error) {
	return psql.Select(
		"id", "owner_user_id", "tenant_id", "name", "prefix", "hash",
		"created_at", "expires_at", "last_used_at", "is_revoked",
	).
		From("api_keys").
		Where(sq.Eq{"prefix": prefix}).
		ToSql()
}

// FindByPrefix loads every row sharing prefix, revoked or expired included,
// for the authentication pipeline's bcrypt verify loop (spec.md §4.5 stage
// 2: the prefix narrows the candidate set, bcrypt disambiguates within it).
// The caller re-checks IsRevoked and ExpiresAt before accepting a match.
func (r *Repository) FindByPrefix(ctx context.Context, prefix string) ([]*apikeydomain.APIKey, error) {
	query, args, err := findByPrefixQuery(prefix)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domainerr.FromPostgres(err, "api_key", prefix)
	}
	defer rows.Close()

	var keys []*apikeydomain.APIKey
	for rows.Next() {
		var id, ownerUserID, tenantID, name, pfx, hash string
		var createdAt, expiresAt time.Time
		var lastUsedAt *time.Time
		var isRevoked bool

		if err := rows.Scan(&id, &ownerUserID, &tenantID, &name, &pfx, &hash, &createdAt, &expiresAt, &lastUsedAt, &isRevoked); err != nil {
			return nil, err
		}

		keys = append(keys, apikeydomain.Rehydrate(id, ownerUserID, tenantID, name, pfx, hash, createdAt, expiresAt, lastUsedAt, isRevoked))
	}

	return keys, rows.Err()
}
