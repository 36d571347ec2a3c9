package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpadapter "github.com/kartohq/iam/internal/adapters/http"
	"github.com/kartohq/iam/internal/platform/log"
)

// ServerApp runs the HTTP transport as a Launcher App. Route bodies beyond
// the auth middleware and the ambient Ping/Version/Welcome handlers are
// out of the core's scope (spec.md §1): this is just enough surface to
// make the auth pipeline and error mapping observable over HTTP, adapted
// from common/net/http/handler.go + withCORS.go + withCorrelationID.go.
type ServerApp struct {
	Address         string
	ShutdownTimeout time.Duration
	Version         string
	AuthDeps        httpadapter.AuthDependencies
	Logger          log.Logger

	// Mount, if set, is called once with the fiber.App so callers can
	// register domain routes (groups, tenants, workspaces, api keys)
	// behind the Authenticate middleware without this package needing to
	// know about request/response DTOs — those are explicitly out of the
	// core's scope.
	Mount func(router fiber.Router)
}

func (a *ServerApp) Run(ctx context.Context) error {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.New().String() },
	}))
	app.Use(cors.New())
	app.Use(httpadapter.WithTelemetry("karto-iam"))

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("healthy") })
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": a.Version, "requestDate": time.Now().UTC()})
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "karto-iam", "description": "multi-tenant IAM core"})
	})

	api := app.Group("/v1", httpadapter.Authenticate(a.AuthDeps))
	if a.Mount != nil {
		a.Mount(api)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(a.Address)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			a.Logger.Errorf("bootstrap: server shutdown: %v", err)
		}

		return nil
	case err := <-errCh:
		return err
	}
}
