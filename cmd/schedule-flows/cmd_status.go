package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
)

type statusCmd struct{}

func (s *statusCmd) Run(ctx context.Context, bridge *host.Memory, client *http.Client, endpoint *url.URL, out *console) error {
	owner, task, err := host.Identity(bridge)
	if err != nil {
		return err
	}
	target := strings.TrimSuffix(endpoint.String(), "/") + "/" + url.PathEscape(owner) + "/" + url.PathEscape(task)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create status request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	out.json(body)
	return nil
}
