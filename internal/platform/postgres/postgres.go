// Package postgres is a pgxpool-native counterpart to
// common/mpostgres/postgres.go: same "hub which deals with postgres
// connections, singleton, Connect/GetDB" shape, but built on
// jackc/pgx/v5/pgxpool directly instead of database/sql + dbresolver
// (see DESIGN.md for why the replica-routing/dbresolver/golang-migrate
// stack was dropped — this service has no read-replica in its data
// flow and schema management is a single init.sql, not an evolving
// migration chain).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool (spec.md §6.4 db.pool_min/db.pool_max).
type Config struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int32
	PoolMax  int32
}

func (c Config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.Name)
}

// Connection is a hub which deals with postgres connections, mirroring
// mpostgres.PostgresConnection's Connect/GetDB shape with a pgxpool.Pool
// underneath.
type Connection struct {
	cfg       Config
	pool      *pgxpool.Pool
	Connected bool
}

// New constructs an unconnected Connection.
func New(cfg Config) *Connection {
	return &Connection{cfg: cfg}
}

// Connect establishes the pool and pings it, the pgxpool analogue of
// mpostgres.PostgresConnection.Connect (minus the migration-running
// step, see package doc).
func (c *Connection) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(c.cfg.dsn())
	if err != nil {
		return fmt.Errorf("postgres: parse config: %w", err)
	}

	poolCfg.MinConns = c.cfg.PoolMin
	poolCfg.MaxConns = c.cfg.PoolMax
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres: ping: %w", err)
	}

	c.pool = pool
	c.Connected = true

	return nil
}

// Pool returns the underlying pool, connecting lazily if needed — the
// pgxpool analogue of mpostgres.PostgresConnection.GetDB.
func (c *Connection) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.pool == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.pool, nil
}

// Close releases the pool.
func (c *Connection) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
