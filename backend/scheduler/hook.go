package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jpillora/backoff"
	"github.com/robfig/cron/v3"

	"github.com/DarumaDocker/schedule-flows/backend/scheduler/dal"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

// hook fires stored schedules by POSTing their body to a webhook.
type hook struct {
	target   *url.URL
	client   *http.Client
	clock    clock.Clock
	attempts int
	cron     *cron.Cron

	lock    sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

func newHook(target *url.URL, client *http.Client, clock clock.Clock, attempts int) *hook {
	return &hook{
		target:   target,
		client:   client,
		clock:    clock,
		attempts: max(attempts, 1),
		cron:     cron.New(cron.WithLocation(time.UTC)),
		entries:  map[string]cron.EntryID{},
	}
}

// bind sets the context firings run under. Cancelling it abandons retries.
func (h *hook) bind(ctx context.Context) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.ctx = ctx
}

func (h *hook) runContext() context.Context {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.ctx == nil {
		return context.Background()
	}
	return h.ctx
}

// schedule replaces any existing entry for the flow. The existing entry is
// kept if reg cannot be scheduled.
func (h *hook) schedule(reg dal.Registration) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	id, err := h.cron.AddFunc(reg.Cron, func() { h.fire(h.runContext(), reg) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", reg.FlowID, err)
	}
	if previous, ok := h.entries[reg.FlowID]; ok {
		h.cron.Remove(previous)
	}
	h.entries[reg.FlowID] = id
	return nil
}

func (h *hook) url(reg dal.Registration) string {
	target := *h.target
	query := target.Query()
	query.Set("l_key", reg.Key.String())
	target.RawQuery = query.Encode()
	return target.String()
}

// fire delivers the body, retrying with backoff.
func (h *hook) fire(ctx context.Context, reg dal.Registration) {
	logger := log.FromContext(ctx).Scope("hook")
	logger.Debugf("Firing %s (%s)", reg.FlowID, reg.Cron)
	retry := backoff.Backoff{Min: 250 * time.Millisecond, Max: 5 * time.Second, Factor: 2}
	for attempt := 1; ; attempt++ {
		err := h.post(ctx, reg)
		if err == nil {
			return
		}
		if attempt >= h.attempts {
			logger.Errorf(err, "Giving up on %s after %d attempts", reg.FlowID, attempt)
			return
		}
		logger.Warnf("Attempt %d for %s failed: %s", attempt, reg.FlowID, err)
		select {
		case <-ctx.Done():
			return
		case <-h.clock.After(retry.Duration()):
		}
	}
}

func (h *hook) post(ctx context.Context, reg dal.Registration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url(reg), bytes.NewReader(reg.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("hook returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
