// Package scheduler is a local implementation of the scheduler HTTP API that
// guest tasks register with.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/alecthomas/types/optional"
	"github.com/benbjohnson/clock"
	"github.com/jellydator/ttlcache/v3"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/DarumaDocker/schedule-flows/backend/scheduler/dal"
	"github.com/DarumaDocker/schedule-flows/internal/cors"
	httpserver "github.com/DarumaDocker/schedule-flows/internal/http"
	"github.com/DarumaDocker/schedule-flows/internal/log"
	"github.com/DarumaDocker/schedule-flows/internal/model"
	"github.com/DarumaDocker/schedule-flows/internal/observability"
)

const (
	msgBadRequest   = "Bad request"
	msgInvalidCron  = "Invalid cron expression: expected only one exact hour and one exact minute"
	msgNoBinding    = "No flow binding with the key"
	msgNoSchedule   = "No schedule for the flow"
	msgRateLimited  = "rate limited"
	maxRequestBytes = 1 << 20
)

var exactCron = regexp.MustCompile(`^(\d{1,2})\s+(\d{1,2})\s`)

// Service serves the scheduler API.
type Service struct {
	dal      *dal.DAL
	clock    clock.Clock
	limiter  *rate.Limiter
	bindings *ttlcache.Cache[string, []dal.Binding]
	hook     optional.Option[*hook]
	config   Config
}

type ListenResponse struct {
	LKey       model.EventKey    `json:"l_key"`
	FlowsUser  string            `json:"flows_user"`
	ScheduleID model.ScheduleKey `json:"schedule_id"`
}

type StatusResponse struct {
	LKey       model.EventKey    `json:"l_key"`
	FlowsUser  string            `json:"flows_user"`
	FlowID     string            `json:"flow_id"`
	ScheduleID model.ScheduleKey `json:"schedule_id"`
	Cron       string            `json:"cron"`
	HandlerFn  *string           `json:"handler_fn,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	NextRun    time.Time         `json:"next_run"`
}

// New creates the service. Stored schedules are not fired until Run is called.
func New(store *dal.DAL, config Config, clock clock.Clock) *Service {
	s := &Service{
		dal:      store,
		clock:    clock,
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), max(config.RateBurst, 1)),
		bindings: ttlcache.New[string, []dal.Binding](ttlcache.WithTTL[string, []dal.Binding](config.CacheTTL)),
		config:   config,
	}
	if config.HookURL != nil {
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		s.hook = optional.Some(newHook(config.HookURL, client, clock, config.HookAttempts))
	}
	return s
}

// Options returns the routes and middleware for an internal/http server.
func (s *Service) Options() []httpserver.Option {
	options := []httpserver.Option{
		httpserver.HTTP("POST /api/{flows_user}/{flow_id}/listen", http.HandlerFunc(s.listen)),
		httpserver.HTTP("GET /api/{flows_user}/{flow_id}", http.HandlerFunc(s.status)),
		httpserver.HTTP("GET /api/event/{l_key}", http.HandlerFunc(s.event)),
		httpserver.Middleware(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "scheduler")
		}),
	}
	if s.config.Pprof {
		options = append(options, httpserver.Pprof())
	}
	if len(s.config.AllowOrigins) > 0 {
		options = append(options, httpserver.Middleware(func(next http.Handler) http.Handler {
			return cors.Middleware(s.config.AllowOrigins, []string{"Content-Type"}, next)
		}))
	}
	return options
}

// Run restores stored schedules and fires them until the context is
// cancelled. It returns immediately if no hook is configured.
func (s *Service) Run(ctx context.Context) error {
	logger := log.FromContext(ctx).Scope("scheduler")
	go s.bindings.Start()
	defer s.bindings.Stop()

	h, ok := s.hook.Get()
	if !ok {
		logger.Infof("No hook configured, schedules will be stored but not fired")
		<-ctx.Done()
		return nil
	}
	h.bind(ctx)
	regs, err := s.dal.ListRegistrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore schedules: %w", err)
	}
	for _, reg := range regs {
		if err := h.schedule(reg); err != nil {
			logger.Errorf(err, "Could not restore schedule for %s", reg.FlowID)
		}
	}
	logger.Infof("Firing %d stored schedules to %s", len(regs), s.config.HookURL)
	h.cron.Start()
	<-ctx.Done()
	<-h.cron.Stop().Done()
	return nil
}

func (s *Service) listen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).Scope("scheduler")
	status := http.StatusOK
	defer func() { observability.Scheduler.Listen(ctx, status) }()

	if !s.limiter.Allow() {
		status = writeText(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}
	flowsUser := r.PathValue("flows_user")
	flowID := r.PathValue("flow_id")
	cronStr := r.URL.Query().Get("cron")
	if flowsUser == "" || flowID == "" || cronStr == "" {
		status = writeText(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if !validCron(cronStr) {
		status = writeText(w, http.StatusBadRequest, msgInvalidCron)
		return
	}
	if _, err := cron.ParseStandard(cronStr); err != nil {
		status = writeText(w, http.StatusBadRequest, "Invalid cron expression: "+err.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		status = writeText(w, http.StatusBadRequest, err.Error())
		return
	}

	reg := dal.Registration{
		ScheduleID: model.NewScheduleKey(),
		Key:        model.NewEventKey(),
		FlowsUser:  flowsUser,
		FlowID:     flowID,
		Cron:       cronStr,
		Body:       body,
	}
	if handlerFn := r.URL.Query().Get("handler_fn"); handlerFn != "" {
		reg.HandlerFn = optional.Some(handlerFn)
	}
	previous, err := s.dal.ReplaceRegistration(ctx, reg, func(optional.Option[dal.Registration]) error {
		if h, ok := s.hook.Get(); ok {
			return h.schedule(reg)
		}
		return nil
	})
	if err != nil {
		logger.Errorf(err, "Failed to store schedule for %s", flowID)
		status = writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	if prev, ok := previous.Get(); ok {
		s.bindings.Delete(prev.Key.String())
		logger.Debugf("Replaced schedule %s for %s", prev.ScheduleID, flowID)
	}
	logger.Infof("Scheduled %s/%s at %q", flowsUser, flowID, cronStr)
	status = writeJSON(ctx, w, ListenResponse{LKey: reg.Key, FlowsUser: flowsUser, ScheduleID: reg.ScheduleID})
}

func (s *Service) event(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).Scope("scheduler")
	status := http.StatusOK
	defer func() { observability.Scheduler.Event(ctx, status) }()

	raw := r.PathValue("l_key")
	if item := s.bindings.Get(raw); item != nil {
		status = writeJSON(ctx, w, item.Value())
		return
	}
	key, err := model.ParseEventKey(raw)
	if err != nil {
		status = writeText(w, http.StatusNotFound, msgNoBinding)
		return
	}
	bindings, err := s.dal.GetBindings(ctx, key)
	if errors.Is(err, dal.ErrNotFound) {
		status = writeText(w, http.StatusNotFound, msgNoBinding)
		return
	} else if err != nil {
		logger.Errorf(err, "Failed to look up event %s", raw)
		status = writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.bindings.Set(raw, bindings, ttlcache.DefaultTTL)
	status = writeJSON(ctx, w, bindings)
}

func (s *Service) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reg, err := s.dal.GetRegistration(ctx, r.PathValue("flow_id"))
	if errors.Is(err, dal.ErrNotFound) || (err == nil && reg.FlowsUser != r.PathValue("flows_user")) {
		writeText(w, http.StatusNotFound, msgNoSchedule)
		return
	} else if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	schedule, err := cron.ParseStandard(reg.Cron)
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, w, StatusResponse{
		LKey:       reg.Key,
		FlowsUser:  reg.FlowsUser,
		FlowID:     reg.FlowID,
		ScheduleID: reg.ScheduleID,
		Cron:       reg.Cron,
		HandlerFn:  reg.HandlerFn.Ptr(),
		CreatedAt:  reg.CreatedAt,
		NextRun:    schedule.Next(s.clock.Now().UTC()),
	})
}

// validCron accepts expressions whose minute and hour are single numbers in
// range.
func validCron(expr string) bool {
	m := exactCron.FindStringSubmatch(expr)
	if m == nil {
		return false
	}
	minute, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	return minute < 60 && hour < 24
}

func writeText(w http.ResponseWriter, status int, msg string) int {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
	return status
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		log.FromContext(ctx).Errorf(err, "Failed to encode response")
		return writeText(w, http.StatusInternalServerError, err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return http.StatusOK
}
