package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	scheduleflows "github.com/DarumaDocker/schedule-flows"
	"github.com/DarumaDocker/schedule-flows/backend/scheduler"
	_ "github.com/DarumaDocker/schedule-flows/internal/automaxprocs" // Set GOMAXPROCS to match Linux container CPU quota.
	"github.com/DarumaDocker/schedule-flows/internal/log"
	"github.com/DarumaDocker/schedule-flows/internal/observability"
)

var cli struct {
	Version             kong.VersionFlag     `help:"Show version."`
	ObservabilityConfig observability.Config `embed:"" prefix:"o11y-"`
	LogConfig           log.Config           `embed:"" prefix:"log-"`
	SchedulerConfig     scheduler.Config     `embed:""`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Description(`Schedule Flows - Scheduler`),
		kong.UsageOnError(),
		kong.Vars{"version": scheduleflows.FormattedVersion},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.ContextWithLogger(ctx, log.Configure(os.Stderr, cli.LogConfig))
	err := observability.Init(ctx, "schedule-server", scheduleflows.Version, cli.ObservabilityConfig)
	kctx.FatalIfErrorf(err, "failed to initialize observability")

	err = scheduler.Start(ctx, cli.SchedulerConfig)
	kctx.FatalIfErrorf(err, "failed to start scheduler")
}
