// Package http provides the HTTP server plumbing shared by services.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/alecthomas/concurrency"

	"github.com/DarumaDocker/schedule-flows/internal/log"
)

const ShutdownGracePeriod = time.Second * 5

type serverOptions struct {
	mux        *http.ServeMux
	middleware []func(http.Handler) http.Handler
}

type Option func(*serverOptions)

// HTTP adds a HTTP route to the server.
func HTTP(pattern string, handler http.Handler) Option {
	return func(o *serverOptions) {
		o.mux.Handle(pattern, handler)
	}
}

// Pprof registers the pprof handlers under /debug/pprof.
func Pprof() Option {
	return func(o *serverOptions) {
		registerPprof(o.mux)
	}
}

// Middleware wraps the whole mux. The first middleware given is outermost.
func Middleware(middleware func(http.Handler) http.Handler) Option {
	return func(o *serverOptions) {
		o.middleware = append(o.middleware, middleware)
	}
}

type Server struct {
	listen *url.URL
	Server *http.Server
}

func NewServer(ctx context.Context, listen *url.URL, options ...Option) *Server {
	opts := &serverOptions{
		mux: http.NewServeMux(),
	}

	opts.mux.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, option := range options {
		option(opts)
	}

	var root http.Handler = opts.mux
	for i := len(opts.middleware) - 1; i >= 0; i-- {
		root = opts.middleware[i](root)
	}

	return &Server{
		listen: listen,
		Server: &http.Server{
			Handler:           root,
			ReadHeaderTimeout: time.Second * 30,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		},
	}
}

// Serve listens on the configured address and serves until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.listen.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen.Host, err)
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until the context is cancelled.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	logger := log.FromContext(ctx)
	logger.Infof("Listening on http://%s", listener.Addr())

	tree, _ := concurrency.New(ctx)

	// Shutdown server on context cancellation.
	tree.Go(func(ctx context.Context) error {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownGracePeriod)
		defer cancel()
		err := s.Server.Shutdown(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			_ = s.Server.Close()
		}
		return fmt.Errorf("shutdown failed: %w", err)
	})

	tree.Go(func(ctx context.Context) error {
		err := s.Server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	err := tree.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Serve starts a HTTP server with sane defaults.
//
// Blocks until the context is cancelled.
func Serve(ctx context.Context, listen *url.URL, options ...Option) error {
	return NewServer(ctx, listen, options...).Serve(ctx)
}
