package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	scheduleflows "github.com/DarumaDocker/schedule-flows"
	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

type CLI struct {
	Version        kong.VersionFlag `help:"Show version."`
	LogConfig      log.Config       `embed:"" prefix:"log-" group:"Logging:"`
	ScheduleConfig schedule.Config  `embed:""`
	Owner          string           `help:"Flows user that owns the task." env:"SCHEDULE_OWNER"`
	Task           string           `help:"Flow ID of the task." env:"SCHEDULE_TASK"`

	Deploy     deployCmd                 `cmd:"" help:"Register a schedule the way the host does when a flow is deployed."`
	Trigger    triggerCmd                `cmd:"" help:"Deliver an event body to a handler the way the host does when a schedule fires."`
	Lookup     lookupCmd                 `cmd:"" help:"Show the flows bound to an event key."`
	Status     statusCmd                 `cmd:"" help:"Show the stored schedule for the task."`
	Completion kongcompletion.Completion `cmd:"" help:"Outputs shell code for initialising tab completions."`
}

var cli CLI

func main() {
	app := createKongApplication(&cli)
	kongcompletion.Register(app)
	kctx, err := app.Parse(os.Args[1:])
	app.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.ContextWithLogger(ctx, log.Configure(os.Stderr, cli.LogConfig))

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	options := append(cli.ScheduleConfig.Options(), schedule.WithHTTPClient(httpClient))
	client := schedule.NewClient(cli.ScheduleConfig.Endpoint, options...)
	bridge := &host.Memory{Owner: []byte(cli.Owner), Task: []byte(cli.Task)}
	task := schedule.New(bridge, client)
	task.Handle(schedule.TriggerEntryPoint, echo)

	out := &console{out: os.Stdout, err: os.Stderr, colour: isatty.IsTerminal(os.Stdout.Fd())}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(bridge, task, httpClient, cli.ScheduleConfig.Endpoint, out)
	err = kctx.Run(ctx)
	if err == nil {
		err = out.report(bridge)
	}
	kctx.FatalIfErrorf(err)
}

func createKongApplication(cli any) *kong.Kong {
	return kong.Must(cli,
		kong.Description(`Schedule Flows - local host harness`),
		kong.Configuration(kongtoml.Loader, ".schedule-flows.toml", "~/.schedule-flows.toml"),
		kong.ShortUsageOnError(),
		kong.HelpOptions{Compact: true, WrapUpperBound: 80},
		kong.Vars{
			"version":           scheduleflows.FormattedVersion,
			"schedule_endpoint": schedule.DefaultEndpoint,
		},
	)
}

// echo writes the delivered body back to the host as a success message.
func echo(ctx context.Context, body []byte) error {
	host.FromContext(ctx).EmitSuccess(body)
	return nil
}
