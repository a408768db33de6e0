package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule"
)

type triggerCmd struct {
	Body     string               `help:"Event body to deliver." xor:"body"`
	BodyFile kong.FileContentFlag `help:"Read the event body from a file." xor:"body" placeholder:"FILE"`
	Handler  string               `help:"Dispatch through this handler export instead of the run entry point." placeholder:"EXPORT"`
}

func (t *triggerCmd) Run(ctx context.Context, task *schedule.Task, bridge *host.Memory) error {
	bridge.Mode = 0
	bridge.Body = eventBody(t.Body, t.BodyFile)
	if t.Handler != "" {
		return task.Trigger(ctx, t.Handler)
	}
	return task.Run(ctx, "", nil, echo)
}
