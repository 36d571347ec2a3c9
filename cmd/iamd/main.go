// Command iamd is the single binary that runs the IAM core: the HTTP
// transport carrying the auth pipeline (C5) and the outbox worker (C3/C4)
// side by side, wired from one env-tag Config (spec.md §6.4). Bootstrap
// shape adapted from common/app.go's Launcher and
// components/crm/internal/bootstrap's Options{Logger}/InitServers
// sequencing: build every adapter, register two Apps, run until signaled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	authzgrpc "github.com/kartohq/iam/internal/adapters/grpc/authzengine"
	httpadapter "github.com/kartohq/iam/internal/adapters/http"
	pgapikey "github.com/kartohq/iam/internal/adapters/postgres/apikey"
	pggroup "github.com/kartohq/iam/internal/adapters/postgres/group"
	pgoutbox "github.com/kartohq/iam/internal/adapters/postgres/outbox"
	pgtenant "github.com/kartohq/iam/internal/adapters/postgres/tenant"
	pguser "github.com/kartohq/iam/internal/adapters/postgres/user"
	pgworkspace "github.com/kartohq/iam/internal/adapters/postgres/workspace"
	"github.com/kartohq/iam/internal/auth"
	"github.com/kartohq/iam/internal/auth/token"
	"github.com/kartohq/iam/internal/bootstrap"
	"github.com/kartohq/iam/internal/platform/config"
	"github.com/kartohq/iam/internal/platform/envcfg"
	"github.com/kartohq/iam/internal/platform/log"
	"github.com/kartohq/iam/internal/platform/otel"
	"github.com/kartohq/iam/internal/platform/postgres"
	"github.com/kartohq/iam/internal/outbox/worker"
)

const version = "0.1.0"

// repositories bundles every aggregate's persistence adapter. Not every
// field is read by run() today — Groups and Workspaces have no HTTP caller
// yet (spec.md §1 puts route scaffolding out of scope) — but all six are
// built from the same pool/outbox pair so the management API this core
// will eventually grow has its persistence layer ready.
type repositories struct {
	Outbox     *pgoutbox.Repository
	Tenants    *pgtenant.Repository
	Groups     *pggroup.Repository
	Workspaces *pgworkspace.Repository
	APIKeys    *pgapikey.Repository
	Users      *pguser.Repository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "iamd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(envcfg.Load)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := log.New(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := otel.Init(ctx, otel.Config{Enabled: cfg.OtelEnabled, ServiceName: cfg.OtelServiceName})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	db := postgres.New(postgres.Config{
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		User: cfg.DBUser, Password: cfg.DBPassword,
		PoolMin: int32(cfg.DBPoolMin), PoolMax: int32(cfg.DBPoolMax),
	})

	pool, err := db.Pool(ctx)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	engine, err := authzgrpc.Connect(authzgrpc.Config{
		Addr:     cfg.GRPCAuthzEngineAddr,
		Insecure: cfg.GRPCAuthzEngineInsecure,
	})
	if err != nil {
		return fmt.Errorf("authz engine: %w", err)
	}
	defer engine.Close() //nolint:errcheck

	outboxRepo := pgoutbox.New()

	repos := repositories{
		Outbox:  outboxRepo,
		Tenants: pgtenant.New(pool, outboxRepo),
		APIKeys: pgapikey.New(pool, outboxRepo),
		Users:   pguser.New(pool),
		// Groups and Workspaces are constructed here so the persistence
		// layer is complete and ready for the management API this core
		// does not yet expose (spec.md §1: "HTTP route scaffolding" is
		// explicitly out of scope) — only Tenants/APIKeys/Users below feed
		// the auth pipeline.
		Groups:     pggroup.New(pool, outboxRepo),
		Workspaces: pgworkspace.New(pool, outboxRepo),
	}

	jwks := token.NewJWKSCache()
	validator := token.NewValidator(jwks, token.DefaultConfig(cfg.OIDCIssuerURL, cfg.OIDCAudience))

	authDeps := httpadapter.AuthDependencies{
		Validator: validator,
		APIKeys:   repos.APIKeys,
		Users:     repos.Users,
		Tenants:   repos.Tenants,
		Engine:    engine,
		TenantCfg: auth.TenantResolutionConfig{
			SingleTenantMode: cfg.TenantSingleTenantMode,
			DefaultTenantID:  cfg.TenantDefaultID,
		},
		APIKeyTag: cfg.APIKeyPrefix,
	}

	launcher := bootstrap.NewLauncher(logger)

	launcher.Add("http", &bootstrap.ServerApp{
		Address:         cfg.ServerAddress,
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Version:         version,
		AuthDeps:        authDeps,
		Logger:          logger,
	})

	launcher.Add("outbox-worker", &bootstrap.WorkerApp{
		Pool:    pool,
		Repo:    repos.Outbox,
		Engine:  engine,
		Channel: cfg.OutboxChannel,
		PollEvery: worker.Config{
			BatchSize:   cfg.OutboxBatchSize,
			MaxAttempts: cfg.OutboxMaxAttempts,
			BaseBackoff: 500 * time.Millisecond,
			MaxBackoff:  5 * time.Minute,
			PollOnEmpty: cfg.OutboxPollInterval(),
		},
		Logger: logger,
	})

	launcher.Run(ctx)

	return nil
}
