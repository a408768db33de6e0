package scheduler

import (
	"net/url"
	"time"
)

type Config struct {
	Bind         *url.URL      `help:"Socket to bind to." default:"http://127.0.0.1:3003" env:"SCHEDULER_BIND"`
	DSN          string        `help:"SQLite DSN for stored schedules." default:"file:schedule-flows.db" env:"SCHEDULER_DSN"`
	HookURL      *url.URL      `help:"Webhook that receives event bodies when a schedule fires. Schedules are stored but never fired when unset." env:"SCHEDULE_HOOK_URL_PREFIX"`
	HookAttempts int           `help:"Delivery attempts per firing." default:"3"`
	AllowOrigins []string      `help:"Origins allowed to call the API from a browser." env:"SCHEDULER_ALLOW_ORIGINS"`
	RateLimit    float64       `help:"Sustained registrations per second." default:"5"`
	RateBurst    int           `help:"Registration burst size." default:"10"`
	CacheTTL     time.Duration `help:"How long event lookups are cached." default:"1m"`
	Pprof        bool          `help:"Serve runtime profiles under /debug/pprof." env:"SCHEDULER_PPROF"`
}
