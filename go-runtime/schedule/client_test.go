package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/types/optional"

	"github.com/DarumaDocker/schedule-flows/go-runtime/schedule/scheduletest"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"50 8 * * *", "50%208%20%2A%20%2A%20%2A"},
		{"0 0 1,15 * 1-5", "0%200%201%2C15%20%2A%201-5"},
		{"*/5 * * * *", "%2A%2F5%20%2A%20%2A%20%2A%20%2A"},
		{"a+b~c_d.e", "a%2Bb~c_d.e"},
		{"ü", "%C3%BC"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, encode(test.input), "%q", test.input)
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		response  string
		handlerFn optional.Option[string]
		wantQuery string
		want      Outcome
	}{
		{
			name:      "Success",
			status:    http.StatusOK,
			wantQuery: "cron=50%208%20%2A%20%2A%20%2A",
			want:      Success{Message: "[schedule_flows] Your flow is scheduled at `50 8 * * *`."},
		},
		{
			name:      "Created",
			status:    http.StatusCreated,
			wantQuery: "cron=50%208%20%2A%20%2A%20%2A",
			want:      Success{Message: "[schedule_flows] Your flow is scheduled at `50 8 * * *`."},
		},
		{
			name:      "WithHandler",
			status:    http.StatusOK,
			handlerFn: optional.Some(TriggerEntryPoint),
			wantQuery: "cron=50%208%20%2A%20%2A%20%2A&handler_fn=__schedule__on_triggered",
			want:      Success{Message: "[schedule_flows] Your flow is scheduled at `50 8 * * *`."},
		},
		{
			name:      "ServerError",
			status:    http.StatusInternalServerError,
			response:  "rate limited",
			wantQuery: "cron=50%208%20%2A%20%2A%20%2A",
			want:      Failure{Diagnostic: []byte("rate limited")},
		},
		{
			name:      "NotModified",
			status:    http.StatusNotModified,
			wantQuery: "cron=50%208%20%2A%20%2A%20%2A",
			want:      Failure{Diagnostic: []byte{}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := log.ContextWithNewDefaultLogger(context.Background())
			scheduler := scheduletest.NewScheduler(t, scheduletest.RespondWith(test.status, test.response))
			client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()))

			outcome, err := client.Register(ctx, CronJob{
				Cron:      "50 8 * * *",
				Body:      []byte("daily-ping"),
				OwnerID:   "acme",
				TaskID:    "t1",
				HandlerFn: test.handlerFn,
			})
			assert.NoError(t, err)
			assert.Equal(t, test.want, outcome)
			assert.Equal(t, []scheduletest.Request{{
				Method:   http.MethodPost,
				Path:     "/acme/t1/listen",
				RawQuery: test.wantQuery,
				Body:     []byte("daily-ping"),
			}}, scheduler.Requests())
		})
	}
}

func TestRegisterSendsBodyVerbatim(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	scheduler := scheduletest.NewScheduler(t)
	client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()))

	body := []byte{0x00, 0xff, '\n', ' ', 0x7f}
	_, err := client.Register(ctx, CronJob{Cron: "0 0 * * *", Body: body, OwnerID: "acme", TaskID: "t1"})
	assert.NoError(t, err)
	requests := scheduler.Requests()
	assert.Equal(t, 1, len(requests))
	assert.Equal(t, body, requests[0].Body)
}

func TestRegisterEmptyOwner(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	scheduler := scheduletest.NewScheduler(t)
	client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()))

	_, err := client.Register(ctx, CronJob{Cron: "0 0 * * *", TaskID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, "//t1/listen", scheduler.Requests()[0].Path)
}

func TestRegisterWithName(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	scheduler := scheduletest.NewScheduler(t)
	client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()), WithName("dailyping"))

	outcome, err := client.Register(ctx, CronJob{Cron: "50 8 * * *", OwnerID: "acme", TaskID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, Outcome(Success{Message: "[dailyping] Your flow is scheduled at `50 8 * * *`."}), outcome)
}

func TestRegisterStrictCron(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	scheduler := scheduletest.NewScheduler(t)
	client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()), WithStrictCron())

	_, err := client.Register(ctx, CronJob{Cron: "*/5 8 * * *", OwnerID: "acme", TaskID: "t1"})
	assert.IsError(t, err, ErrInvalidCron)
	assert.Equal(t, 0, len(scheduler.Requests()))

	_, err = client.Register(ctx, CronJob{Cron: "50 8 * * *", OwnerID: "acme", TaskID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(scheduler.Requests()))
}

func TestRegisterTransportFailure(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint, err := url.Parse(server.URL)
	assert.NoError(t, err)
	server.Close()

	client := NewClient(endpoint)
	outcome, err := client.Register(ctx, CronJob{Cron: "50 8 * * *", OwnerID: "acme", TaskID: "t1"})
	assert.Error(t, err)
	assert.True(t, outcome == nil)
}

func TestLookupEvent(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	flows := []byte(`[{"flow_id":"t1","flows_user":"acme","schedule_id":"sch-1"}]`)
	scheduler := scheduletest.NewScheduler(t,
		scheduletest.WithEvent("evt-1", flows),
		scheduletest.WithEvent("evt-binary", []byte{0xff, 0xfe}),
	)
	client := NewClient(scheduler.Endpoint(), WithHTTPClient(scheduler.HTTPClient()))

	got, err := client.LookupEvent(ctx, "evt-1")
	assert.NoError(t, err)
	assert.Equal(t, optional.Some(flows), got)

	got, err = client.LookupEvent(ctx, "evt-missing")
	assert.NoError(t, err)
	assert.Equal(t, optional.None[[]byte](), got)

	got, err = client.LookupEvent(ctx, "evt-binary")
	assert.NoError(t, err)
	assert.Equal(t, optional.None[[]byte](), got)

	paths := []string{}
	for _, req := range scheduler.Requests() {
		assert.Equal(t, http.MethodGet, req.Method)
		paths = append(paths, req.Path)
	}
	assert.Equal(t, []string{"/event/evt-1", "/event/evt-missing", "/event/evt-binary"}, paths)
}

func TestEndpointFromEnvironment(t *testing.T) {
	t.Setenv(EndpointEnvar, "http://127.0.0.1:3003/api")
	endpoint, err := EndpointFromEnvironment()
	assert.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3003/api", endpoint.String())

	t.Setenv(EndpointEnvar, "")
	endpoint, err = EndpointFromEnvironment()
	assert.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, endpoint.String())

	t.Setenv(EndpointEnvar, "http://[::1")
	_, err = EndpointFromEnvironment()
	assert.Error(t, err)
}

func TestEndpointTrailingSlash(t *testing.T) {
	endpoint, err := url.Parse("https://scheduler.example/api/")
	assert.NoError(t, err)
	client := NewClient(endpoint)
	assert.Equal(t, "https://scheduler.example/api/acme/t1/listen?cron=0%200%20%2A%20%2A%20%2A",
		client.listenURL(CronJob{Cron: "0 0 * * *", OwnerID: "acme", TaskID: "t1"}))
}

func TestConfigOptions(t *testing.T) {
	assert.Equal(t, 0, len(Config{}.Options()))
	assert.Equal(t, 1, len(Config{StrictCron: true}.Options()))
}
