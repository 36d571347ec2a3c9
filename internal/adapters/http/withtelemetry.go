package http

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
)

// WithTelemetry opens one span per request, named "<METHOD> <path>", and
// closes it once the handler chain returns — the fiber counterpart to the
// teacher's TelemetryMiddleware.WithTelemetry/EndTracingSpans pair,
// collapsed into a single middleware since this core has no separate
// metrics collector to invoke mid-request.
func WithTelemetry(serviceName string) fiber.Handler {
	tracer := otel.Tracer(serviceName)

	return func(c *fiber.Ctx) error {
		ctx, span := tracer.Start(c.UserContext(), c.Method()+" "+c.Route().Path)
		defer span.End()

		c.SetUserContext(ctx)

		return c.Next()
	}
}
