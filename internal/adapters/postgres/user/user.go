// Package user is the Postgres adapter for the user record JIT-provisioned
// by the auth pipeline (spec.md §4.5 stage 3). Users are not a DDD
// aggregate — no invariants beyond the unique-username constraint, no
// domain events — so there is no corresponding internal/domain/user
// package; this adapter is the whole of it.
package user

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/domainerr"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Record is a provisioned user row.
type Record struct {
	ID       string
	Username string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func findUserQuery(id string) (string, []any, error) {
	return psql.Select("id", "username").From("users").Where(sq.Eq{"id": id}).ToSql()
}

// FindByID returns the user row for id, or domainerr.NotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*Record, error) {
	query, args, err := findUserQuery(id)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.Username); err != nil {
		return nil, domainerr.FromPostgres(err, "user", id)
	}

	return &rec, nil
}

// EnsureProvisioned implements the JIT rule of spec.md §4.5 stage 3: look
// up by id; if absent, insert with username; if present and username
// differs, update it. Runs as a single upsert so concurrent first-logins
// of the same user never race.
func (r *Repository) EnsureProvisioned(ctx context.Context, id, username string) error {
	query, args, err := ensureProvisionedQuery(id, username)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return domainerr.FromPostgres(err, "user", id)
	}

	return nil
}

func ensureProvisionedQuery(id, username string) (string, []any, error) {
	return psql.Insert("users").
		Columns("id", "username").
		Values(id, username).
		Suffix("ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username WHERE users.username <> EXCLUDED.username").
		ToSql()
}
