package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule"
)

type deployCmd struct {
	Cron      string               `arg:"" help:"Cron expression, for example \"30 8 * * *\"."`
	Body      string               `help:"Event body delivered when the schedule fires." xor:"body"`
	BodyFile  kong.FileContentFlag `help:"Read the event body from a file." xor:"body" placeholder:"FILE"`
	HandlerFn string               `help:"Guest export to invoke when the schedule fires. Uses the run entry point when unset." placeholder:"EXPORT"`
}

func (d *deployCmd) Run(ctx context.Context, task *schedule.Task, bridge *host.Memory) error {
	bridge.Mode = 1
	body := eventBody(d.Body, d.BodyFile)
	if d.HandlerFn != "" {
		return task.ScheduleCronJob(ctx, d.Cron, body, schedule.Via(d.HandlerFn))
	}
	_, err := task.CronJobEvoked(ctx, d.Cron, body)
	return err
}

func eventBody(inline string, file kong.FileContentFlag) []byte {
	if file != nil {
		return []byte(file)
	}
	return []byte(inline)
}
