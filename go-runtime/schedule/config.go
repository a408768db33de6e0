package schedule

import (
	"fmt"
	"net/url"
	"os"
)

// EndpointEnvar overrides the scheduler base address.
const EndpointEnvar = "SCHEDULE_API_PREFIX"

// DefaultEndpoint is the scheduler base address used when EndpointEnvar is
// unset. It can be replaced at link time with
// -ldflags "-X github.com/DarumaDocker/schedule-flows/go-runtime/schedule.DefaultEndpoint=...".
var DefaultEndpoint = "https://schedule-flows-extension.vercel.app/api"

// Config for CLIs that talk to the scheduler.
type Config struct {
	Endpoint   *url.URL `help:"Scheduler API base address." env:"SCHEDULE_API_PREFIX" default:"${schedule_endpoint}"`
	StrictCron bool     `help:"Reject cron expressions without an exact minute and hour before contacting the scheduler."`
}

// Options converts the configuration into client options.
func (c Config) Options() []ClientOption {
	if c.StrictCron {
		return []ClientOption{WithStrictCron()}
	}
	return nil
}

// EndpointFromEnvironment returns the scheduler base address from
// EndpointEnvar, falling back to DefaultEndpoint.
func EndpointFromEnvironment() (*url.URL, error) {
	raw := DefaultEndpoint
	if env, ok := os.LookupEnv(EndpointEnvar); ok && env != "" {
		raw = env
	}
	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler endpoint %q: %w", raw, err)
	}
	return endpoint, nil
}
