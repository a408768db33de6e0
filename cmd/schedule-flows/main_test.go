package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule"
	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule/scheduletest"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

type harness struct {
	ctx       context.Context
	scheduler *scheduletest.Scheduler
	bridge    *host.Memory
	task      *schedule.Task
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	console   *console
}

func newHarness(t *testing.T, options ...scheduletest.SchedulerOption) *harness {
	t.Helper()
	scheduler := scheduletest.NewScheduler(t, options...)
	client := schedule.NewClient(scheduler.Endpoint(), schedule.WithHTTPClient(scheduler.HTTPClient()))
	bridge := &host.Memory{Owner: []byte("alice"), Task: []byte("flow-1")}
	task := schedule.New(bridge, client)
	task.Handle(schedule.TriggerEntryPoint, echo)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &harness{
		ctx:       log.ContextWithNewDefaultLogger(context.Background()),
		scheduler: scheduler,
		bridge:    bridge,
		task:      task,
		stdout:    stdout,
		stderr:    stderr,
		console:   &console{out: stdout, err: stderr},
	}
}

func TestDeploy(t *testing.T) {
	h := newHarness(t)
	err := (&deployCmd{Cron: "30 8 * * *", Body: "hello"}).Run(h.ctx, h.task, h.bridge)
	assert.NoError(t, err)
	assert.NoError(t, h.console.report(h.bridge))
	assert.Equal(t, "[schedule_flows] Your flow is scheduled at `30 8 * * *`.\n", h.stdout.String())

	requests := h.scheduler.Requests()
	assert.Equal(t, 1, len(requests))
	assert.Equal(t, "/alice/flow-1/listen", requests[0].Path)
	assert.Equal(t, "cron=30%208%20%2A%20%2A%20%2A", requests[0].RawQuery)
	assert.Equal(t, "hello", string(requests[0].Body))
}

func TestDeployWithHandler(t *testing.T) {
	h := newHarness(t)
	cmd := &deployCmd{Cron: "0 9 * * *", BodyFile: []byte("from file"), HandlerFn: "on_fire"}
	assert.NoError(t, cmd.Run(h.ctx, h.task, h.bridge))

	requests := h.scheduler.Requests()
	assert.Equal(t, 1, len(requests))
	assert.Equal(t, "cron=0%209%20%2A%20%2A%20%2A&handler_fn=on_fire", requests[0].RawQuery)
	assert.Equal(t, "from file", string(requests[0].Body))
}

func TestDeployRejected(t *testing.T) {
	h := newHarness(t, scheduletest.RespondWith(http.StatusBadRequest, "Bad request"))
	assert.NoError(t, (&deployCmd{Cron: "bogus"}).Run(h.ctx, h.task, h.bridge))
	err := h.console.report(h.bridge)
	assert.IsError(t, err, errRejected)
	assert.Equal(t, "Bad request\n", h.stderr.String())
	assert.Equal(t, "", h.stdout.String())
}

func TestTrigger(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, (&triggerCmd{Body: "payload"}).Run(h.ctx, h.task, h.bridge))
	assert.NoError(t, h.console.report(h.bridge))
	assert.Equal(t, "payload\n", h.stdout.String())
	assert.Equal(t, 0, len(h.scheduler.Requests()))
}

func TestTriggerNamedHandler(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, (&triggerCmd{Body: "named", Handler: schedule.TriggerEntryPoint}).Run(h.ctx, h.task, h.bridge))
	assert.NoError(t, h.console.report(h.bridge))
	assert.Equal(t, "named\n", h.stdout.String())

	err := (&triggerCmd{Handler: "missing"}).Run(h.ctx, h.task, h.bridge)
	assert.IsError(t, err, schedule.ErrNoHandler)
}

func TestLookup(t *testing.T) {
	flows := `[{"flow_id":"flow-1","flows_user":"alice","schedule_id":"sch-1"}]`
	h := newHarness(t, scheduletest.WithEvent("evt-1", []byte(flows)))
	assert.NoError(t, (&lookupCmd{Key: "evt-1"}).Run(h.ctx, h.task, h.bridge))
	assert.NoError(t, h.console.report(h.bridge))
	assert.Contains(t, h.stdout.String(), `"flow_id": "flow-1"`)
	assert.Contains(t, h.stdout.String(), `"schedule_id": "sch-1"`)

	h.bridge.Flows = nil
	err := (&lookupCmd{Key: "evt-2"}).Run(h.ctx, h.task, h.bridge)
	assert.EqualError(t, err, "no flows bound to evt-2")
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/alice/flow-1" {
			http.Error(w, "No schedule", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"flow_id":"flow-1","cron":"0 8 * * *"}`))
	}))
	t.Cleanup(server.Close)
	endpoint, err := url.Parse(server.URL + "/api/")
	assert.NoError(t, err)

	h := newHarness(t)
	assert.NoError(t, (&statusCmd{}).Run(h.ctx, h.bridge, server.Client(), endpoint, h.console))
	assert.Contains(t, h.stdout.String(), `"cron": "0 8 * * *"`)

	h.bridge.Task = []byte("flow-2")
	err = (&statusCmd{}).Run(h.ctx, h.bridge, server.Client(), endpoint, h.console)
	assert.EqualError(t, err, "status 404: No schedule")
}

func TestParse(t *testing.T) {
	t.Setenv("SCHEDULE_API_PREFIX", "http://127.0.0.1:3003/api")
	var c CLI
	app := createKongApplication(&c)
	kctx, err := app.Parse([]string{"--owner", "alice", "--task", "flow-1", "deploy", "0 8 * * *", "--body", "hi"})
	assert.NoError(t, err)
	assert.Equal(t, "deploy <cron>", kctx.Command())
	assert.Equal(t, "alice", c.Owner)
	assert.Equal(t, "0 8 * * *", c.Deploy.Cron)
	assert.Equal(t, "hi", c.Deploy.Body)
	assert.Equal(t, "http://127.0.0.1:3003/api", c.ScheduleConfig.Endpoint.String())
}
