// Package scheduletest contains test utilities for the schedule package.
package scheduletest

import (
	"context"
	"fmt"

	"github.com/alecthomas/types/optional"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

// Context suitable for testing tasks, carrying a logger and a host.Memory
// bridge configured by options.
func Context(options ...func(context.Context) error) context.Context {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	ctx = host.ContextWithBridge(ctx, &host.Memory{})
	for _, option := range options {
		if err := option(ctx); err != nil {
			panic(fmt.Sprintf("error applying option: %v", err))
		}
	}
	return ctx
}

// Bridge returns the in-memory bridge carried by a Context.
func Bridge(ctx context.Context) *host.Memory {
	memory, ok := host.FromContext(ctx).(*host.Memory)
	if !ok {
		panic("context was not created by scheduletest.Context")
	}
	return memory
}

// WithIdentity sets the owner and task identifiers.
//
// To be used with Context(...)
func WithIdentity(owner, task string) func(context.Context) error {
	return func(ctx context.Context) error {
		memory := Bridge(ctx)
		memory.Owner = []byte(owner)
		memory.Task = []byte(task)
		return nil
	}
}

// WithMode sets the raw execution mode flag.
//
// To be used with Context(...)
func WithMode(flag int32) func(context.Context) error {
	return func(ctx context.Context) error {
		Bridge(ctx).Mode = flag
		return nil
	}
}

// Registering puts the invocation in the registration phase.
//
// To be used with Context(...)
func Registering() func(context.Context) error { return WithMode(1) }

// Triggered puts the invocation in the triggered phase with the given event
// body.
//
// To be used with Context(...)
func Triggered(body []byte) func(context.Context) error {
	return func(ctx context.Context) error {
		memory := Bridge(ctx)
		memory.Mode = 0
		memory.Body = body
		return nil
	}
}

// WithEventQuery sets the event query.
//
// To be used with Context(...)
func WithEventQuery(query string) func(context.Context) error {
	return func(ctx context.Context) error {
		Bridge(ctx).Query = []byte(query)
		return nil
	}
}

// WithBodyTransfer overrides the length the host announces for the event body
// and the count it reports after filling.
//
// To be used with Context(...)
func WithBodyTransfer(length, count int32) func(context.Context) error {
	return func(ctx context.Context) error {
		memory := Bridge(ctx)
		memory.BodyLength = optional.Some(length)
		memory.BodyCount = optional.Some(count)
		return nil
	}
}
