// Package schedule registers guest tasks with the scheduler and dispatches the
// stored body to a handler when the schedule fires.
//
// A guest is invoked once at deploy time to register, and once per firing.
// Every entry point reads the mode and identity afresh from the host.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alecthomas/types/optional"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/internal/log"
	"github.com/DarumaDocker/schedule-flows/internal/observability"
)

// TriggerEntryPoint is the guest export the scheduler invokes for handlers
// registered with ScheduleCronJob.
const TriggerEntryPoint = "__schedule__on_triggered"

const runHandlerName = "cron_job_evoked"

var (
	// ErrNoHandler is returned by Trigger for an unregistered handler name.
	ErrNoHandler = errors.New("no handler registered")
	// ErrInvalidQuery is returned by Request when the event query is malformed.
	ErrInvalidQuery = errors.New("invalid event query")
)

// Handler receives the body stored at registration time.
type Handler func(ctx context.Context, body []byte) error

// Task is the guest side of a scheduled flow.
type Task struct {
	bridge   host.Bridge
	client   *Client
	handlers map[string]Handler
}

func New(bridge host.Bridge, client *Client) *Task {
	return &Task{
		bridge:   bridge,
		client:   client,
		handlers: map[string]Handler{},
	}
}

// CronJobEvoked is the single entry point for both phases.
//
// When registering it registers the schedule, writes the outcome to the host
// and returns None. When triggered it returns the event body and makes no
// request.
func (t *Task) CronJobEvoked(ctx context.Context, cron string, body []byte) (optional.Option[[]byte], error) {
	logger := log.FromContext(ctx).Scope("schedule")
	mode := host.ResolveMode(t.bridge)
	logger.Debugf("Invoked while %s", mode)
	if mode == host.Registering {
		return optional.None[[]byte](), t.register(ctx, cron, body, optional.None[string]())
	}
	payload, err := host.EventBody(t.bridge)
	if err != nil {
		return optional.None[[]byte](), err
	}
	return optional.Some(payload), nil
}

// Run calls CronJobEvoked and hands any payload to handler exactly once.
func (t *Task) Run(ctx context.Context, cron string, body []byte, handler Handler) error {
	payload, err := t.CronJobEvoked(ctx, cron, body)
	if err != nil {
		return err
	}
	if p, ok := payload.Get(); ok {
		return t.dispatch(ctx, runHandlerName, handler, p)
	}
	return nil
}

type scheduleOptions struct {
	handlerFn string
}

type ScheduleOption func(*scheduleOptions)

// Via sets the guest export the scheduler invokes when the schedule fires.
func Via(name string) ScheduleOption {
	return func(o *scheduleOptions) { o.handlerFn = name }
}

// ScheduleCronJob registers cron with a named handler export. It always
// registers, and is meant to be called from the deploy entry point.
func (t *Task) ScheduleCronJob(ctx context.Context, cron string, body []byte, options ...ScheduleOption) error {
	opts := scheduleOptions{handlerFn: TriggerEntryPoint}
	for _, option := range options {
		option(&opts)
	}
	return t.register(ctx, cron, body, optional.Some(opts.handlerFn))
}

// Handle registers h under name. It must be called before any entry point
// runs, and panics if name is already taken.
func (t *Task) Handle(name string, h Handler) {
	if _, ok := t.handlers[name]; ok {
		panic(fmt.Sprintf("handler %q already registered", name))
	}
	t.handlers[name] = h
}

// Trigger reads the event body and calls the handler registered under name.
func (t *Task) Trigger(ctx context.Context, name string) error {
	handler, ok := t.handlers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoHandler, name)
	}
	body, err := host.EventBody(t.bridge)
	if err != nil {
		return err
	}
	return t.dispatch(ctx, name, handler, body)
}

// Request resolves the event named by the "l_key" query parameter and writes
// the bound flows to the host. A query without "l_key" does nothing.
func (t *Task) Request(ctx context.Context) error {
	logger := log.FromContext(ctx).Scope("schedule")
	query, err := host.EventQuery(t.bridge)
	if err != nil {
		return err
	}
	params := map[string]any{}
	if err := json.Unmarshal(query, &params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	raw, ok := params["l_key"]
	if !ok {
		logger.Debugf("Event query has no l_key")
		return nil
	}
	key, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: l_key is %T, not a string", ErrInvalidQuery, raw)
	}
	flows, err := t.client.LookupEvent(ctx, key)
	if err != nil {
		return err
	}
	if f, ok := flows.Get(); ok {
		t.bridge.EmitFlows(f)
	}
	return nil
}

func (t *Task) register(ctx context.Context, cron string, body []byte, handlerFn optional.Option[string]) error {
	owner, task, err := host.Identity(t.bridge)
	if err != nil {
		return err
	}
	outcome, err := t.client.Register(ctx, CronJob{
		Cron:      cron,
		Body:      body,
		OwnerID:   owner,
		TaskID:    task,
		HandlerFn: handlerFn,
	})
	if err != nil {
		return err
	}
	Deliver(t.bridge, outcome)
	return nil
}

func (t *Task) dispatch(ctx context.Context, name string, handler Handler, body []byte) error {
	logger := log.FromContext(ctx).Scope("schedule")
	logger.Debugf("Dispatching %d bytes to %s", len(body), name)
	err := handler(host.ContextWithBridge(ctx, t.bridge), body)
	observability.Schedule.Dispatched(ctx, name, err == nil)
	if err != nil {
		return fmt.Errorf("handler %s failed: %w", name, err)
	}
	return nil
}
