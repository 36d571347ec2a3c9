package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/outbox"
	"github.com/kartohq/iam/internal/outbox/eventsource"
	"github.com/kartohq/iam/internal/outbox/worker"
	"github.com/kartohq/iam/internal/platform/log"
)

// WorkerApp runs the outbox worker (C3/C4) as a Launcher App: it fans the
// notification listener and the polling ticker into one wake channel and
// hands it to worker.Worker.Run (spec.md §4.3/§4.4).
type WorkerApp struct {
	Pool     *pgxpool.Pool
	Repo     outbox.Repository
	Engine   authz.Engine
	Channel  string
	PollEvery worker.Config
	Logger   log.Logger
}

func (a *WorkerApp) Run(ctx context.Context) error {
	w := worker.New(a.Pool, a.Repo, a.Engine, a.PollEvery, a.Logger)

	wake := eventsource.Merge(ctx,
		eventsource.Listen(ctx, a.Pool, a.Channel, a.Logger),
		eventsource.Poll(ctx, a.PollEvery.PollOnEmpty),
	)

	w.Run(ctx, wake)

	return nil
}
