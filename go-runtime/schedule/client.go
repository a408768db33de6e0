package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/types/optional"

	"github.com/DarumaDocker/schedule-flows/internal/cron"
	"github.com/DarumaDocker/schedule-flows/internal/log"
	"github.com/DarumaDocker/schedule-flows/internal/observability"
)

// DefaultName prefixes the confirmation written on successful registration.
const DefaultName = "schedule_flows"

// ErrInvalidCron is returned by Register in strict mode when the expression
// does not pin an exact minute and hour.
var ErrInvalidCron = errors.New("invalid cron expression")

// CronJob is a single registration request.
type CronJob struct {
	Cron    string
	Body    []byte
	OwnerID string
	TaskID  string
	// HandlerFn names the guest export the scheduler should invoke.
	HandlerFn optional.Option[string]
}

type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for scheduler requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.client = client }
}

// WithName sets the name shown in the success message.
func WithName(name string) ClientOption {
	return func(c *Client) { c.name = name }
}

// WithStrictCron rejects expressions without an exact minute and hour before
// any request is made.
func WithStrictCron() ClientOption {
	return func(c *Client) { c.strictCron = true }
}

// Client talks to the scheduler HTTP API.
type Client struct {
	endpoint   *url.URL
	client     *http.Client
	name       string
	strictCron bool
}

func NewClient(endpoint *url.URL, options ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   http.DefaultClient,
		name:     DefaultName,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Register sends exactly one registration request for job.
//
// Any HTTP response is an Outcome. Only transport failures are errors, and
// they are not retried.
func (c *Client) Register(ctx context.Context, job CronJob) (Outcome, error) {
	logger := log.FromContext(ctx).Scope("schedule")
	if c.strictCron {
		if _, err := cron.ValidateExact(job.Cron); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCron, err)
		}
	}

	target := c.listenURL(job)
	logger.Debugf("Registering %q for %s/%s", job.Cron, job.OwnerID, job.TaskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(job.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to register schedule for %s/%s: %w", job.OwnerID, job.TaskID, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registration response: %w", err)
	}

	succeeded := isSuccess(resp.StatusCode)
	observability.Schedule.Registered(ctx, job.OwnerID, job.TaskID, succeeded)
	if !succeeded {
		logger.Debugf("Scheduler rejected %q with status %d", job.Cron, resp.StatusCode)
		return Failure{Diagnostic: body}, nil
	}
	return Success{Message: fmt.Sprintf("[%s] Your flow is scheduled at `%s`.", c.name, job.Cron)}, nil
}

// LookupEvent fetches the flows bound to an event key.
//
// Returns None when the scheduler does not answer with a 2xx UTF-8 body.
func (c *Client) LookupEvent(ctx context.Context, key string) (optional.Option[[]byte], error) {
	logger := log.FromContext(ctx).Scope("schedule")
	target := c.base() + "/event/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return optional.None[[]byte](), fmt.Errorf("failed to create event request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return optional.None[[]byte](), fmt.Errorf("failed to look up event %s: %w", key, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return optional.None[[]byte](), fmt.Errorf("failed to read event response: %w", err)
	}

	found := isSuccess(resp.StatusCode) && utf8.Valid(body)
	observability.Schedule.LookedUp(ctx, found)
	if !found {
		logger.Debugf("No flows for event %s (status %d)", key, resp.StatusCode)
		return optional.None[[]byte](), nil
	}
	return optional.Some(body), nil
}

func (c *Client) base() string {
	return strings.TrimSuffix(c.endpoint.String(), "/")
}

func (c *Client) listenURL(job CronJob) string {
	query := "cron=" + encode(job.Cron)
	if fn, ok := job.HandlerFn.Get(); ok {
		query += "&handler_fn=" + encode(fn)
	}
	return c.base() + "/" + url.PathEscape(job.OwnerID) + "/" + url.PathEscape(job.TaskID) + "/listen?" + query
}

// encode escapes every byte except ASCII alphanumerics and "-_.~".
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
