package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule"
)

type lookupCmd struct {
	Key string `arg:"" help:"Event key returned when the schedule was registered."`
}

func (l *lookupCmd) Run(ctx context.Context, task *schedule.Task, bridge *host.Memory) error {
	query, err := json.Marshal(map[string]string{"l_key": l.Key})
	if err != nil {
		return fmt.Errorf("failed to encode event query: %w", err)
	}
	bridge.Query = query
	if err := task.Request(ctx); err != nil {
		return err
	}
	if len(bridge.Flows) == 0 {
		return fmt.Errorf("no flows bound to %s", l.Key)
	}
	return nil
}
