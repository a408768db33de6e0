package scheduler

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/DarumaDocker/schedule-flows/backend/scheduler/dal"
	httpserver "github.com/DarumaDocker/schedule-flows/internal/http"
	"github.com/DarumaDocker/schedule-flows/internal/log"
)

// Start the scheduler service. Blocks until the context is cancelled.
func Start(ctx context.Context, config Config) error {
	logger := log.FromContext(ctx).Scope("scheduler")
	clk := clock.New()
	store, err := dal.Open(ctx, config.DSN, clk)
	if err != nil {
		return fmt.Errorf("failed to open schedule store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	svc := New(store, config, clk)
	logger.Debugf("Storing schedules in %s", config.DSN)

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return svc.Run(ctx)
	})
	wg.Go(func() error {
		return httpserver.Serve(ctx, config.Bind, svc.Options()...)
	})
	if err := wg.Wait(); err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	return nil
}
