// Package bootstrap wires the IAM core's components into a runnable
// process: an HTTP server carrying the auth middleware and a handful of
// ambient routes, and the outbox worker, run side by side under one
// Launcher. Adapted from common/app.go's Launcher/App pattern — same
// "register named Apps, run each in its own goroutine, wait for all" shape
// — but ctx-driven instead of running forever, so the outbox worker (which
// must stop between entries, never mid-entry, per spec.md §5) and the
// HTTP server (which must drain in-flight requests) can both shut down on
// one signal.
package bootstrap

import (
	"context"
	"sync"

	"github.com/kartohq/iam/internal/platform/log"
)

// App is one long-running process component. Run blocks until ctx is
// canceled or the component fails on its own.
type App interface {
	Run(ctx context.Context) error
}

// Launcher runs a fixed set of named Apps concurrently and waits for all
// of them to return, mirroring common/app.go's Launcher.Run but taking a
// context instead of running unconditionally.
type Launcher struct {
	logger log.Logger
	apps   map[string]App
}

// NewLauncher builds a Launcher. logger may be nil (NoneLogger is used).
func NewLauncher(logger log.Logger) *Launcher {
	if logger == nil {
		logger = &log.NoneLogger{}
	}

	return &Launcher{logger: logger, apps: make(map[string]App)}
}

// Add registers an App under name. Names only matter for log lines.
func (l *Launcher) Add(name string, app App) *Launcher {
	l.apps[name] = app
	return l
}

// Run starts every registered App in its own goroutine and blocks until
// all of them return. An App that fails on its own is logged; it does not
// cancel ctx, so the other Apps keep running until ctx is canceled.
func (l *Launcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(len(l.apps))

	l.logger.Infof("bootstrap: starting %d app(s)", len(l.apps))

	for name, app := range l.apps {
		name, app := name, app

		go func() {
			defer wg.Done()

			l.logger.Infof("bootstrap: %s starting", name)

			if err := app.Run(ctx); err != nil && ctx.Err() == nil {
				l.logger.Errorf("bootstrap: %s exited with error: %v", name, err)
			}

			l.logger.Infof("bootstrap: %s stopped", name)
		}()
	}

	wg.Wait()
	l.logger.Info("bootstrap: all apps stopped")
}
