package app

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/config"
	"github.com/Peripli/feature-browser/pkg/logging"
	"github.com/Peripli/feature-browser/pkg/metrics"
	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/feature-browser/pkg/server"
	"github.com/Peripli/service-manager/pkg/env"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron"
)

// App type is the starting point of the feature browser. It glues the REST API, the session
// registry and the timed job sweeping expired sessions.
type App struct {
	CronScheduler *cron.Cron
	Server        *server.Server
	Registry      *browser.Registry
	Settings      *config.Settings

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a new App from the provided environment
func New(ctx context.Context, cancel context.CancelFunc, env env.Environment) (*App, error) {
	settings, err := config.NewSettings(env)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	ctx, err = logging.Setup(ctx, settings.Log)
	if err != nil {
		return nil, err
	}

	client, err := sapi.NewClient(settings.Sapi)
	if err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pullMetrics, err := metrics.NewPullMetrics(promRegistry)
	if err != nil {
		return nil, errors.Wrap(err, "error registering metrics")
	}

	registry := browser.NewRegistry(ctx, client, settings.Browser, pullable.WithObserver(pullMetrics))

	srv, err := server.New(settings.Server, registry, promRegistry)
	if err != nil {
		return nil, err
	}

	cronScheduler := cron.New()
	if err := cronScheduler.AddJob(sweepSchedule(settings.Browser.SessionTTL), registry); err != nil {
		return nil, errors.Wrap(err, "error adding session sweep job")
	}

	return &App{
		CronScheduler: cronScheduler,
		Server:        srv,
		Registry:      registry,
		Settings:      settings,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Run is the entrypoint of the App. Run boots the application and blocks until its context is done.
func (a *App) Run() error {
	handleInterrupts(a.ctx, a.cancel)

	a.CronScheduler.Start()
	defer a.CronScheduler.Stop()

	defer a.Registry.Close()

	log.C(a.ctx).Info("Running feature browser...")
	if err := a.Server.Run(a.ctx); err != nil {
		log.C(a.ctx).WithError(errors.WithStack(err)).Error("Error occurred while the feature browser was running")
		return err
	}
	return nil
}

func sweepSchedule(sessionTTL time.Duration) string {
	period := sessionTTL / 2
	if period < time.Second {
		period = time.Second
	}
	return "@every " + period.String()
}

// handleInterrupts handles OS interrupt signals by canceling the context
func handleInterrupts(ctx context.Context, cancel context.CancelFunc) {
	term := make(chan os.Signal, 1)
	signal.Notify(term, os.Interrupt)
	go func() {
		select {
		case <-term:
			log.C(ctx).Error("Received OS interrupt, exiting gracefully...")
			cancel()
		case <-ctx.Done():
			return
		}
	}()
}
