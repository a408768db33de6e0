package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/DarumaDocker/schedule-flows/internal/log"
)

func TestServer(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)

	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Order", name)
				next.ServeHTTP(w, r)
			})
		}
	}

	server := NewServer(ctx, &url.URL{Scheme: "http", Host: listener.Addr().String()},
		HTTP("GET /hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		})),
		Pprof(),
		Middleware(tag("outer")),
		Middleware(tag("inner")),
	)

	done := make(chan error, 1)
	go func() { done <- server.ServeListener(ctx, listener) }()

	base := "http://" + listener.Addr().String()

	resp, err := http.Get(base + "/healthz")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"outer", "inner"}, resp.Header.Values("X-Order"))

	resp, err = http.Get(base + "/hello")
	assert.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	for _, path := range []string{"/debug/pprof/cmdline", "/debug/pprof/goroutine?debug=1", "/debug/pprof"} {
		resp, err = http.Get(base + path)
		assert.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownGracePeriod * 2):
		t.Fatal("server did not shut down")
	}
}

func TestServeReturnsNilOnCancel(t *testing.T) {
	ctx := log.ContextWithNewDefaultLogger(context.Background())
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, &url.URL{Scheme: "http", Host: "127.0.0.1:0"}) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownGracePeriod * 2):
		t.Fatal("server did not shut down")
	}
}
