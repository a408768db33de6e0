package scheduletest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
)

// Request is a request received by a fake Scheduler.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
}

type response struct {
	status int
	body   []byte
}

// Scheduler is a fake scheduler API that records every request.
type Scheduler struct {
	server *httptest.Server

	lock     sync.Mutex
	requests []Request
	listen   response
	events   map[string][]byte
}

type SchedulerOption func(*Scheduler)

// RespondWith sets the response to registration requests.
func RespondWith(status int, body string) SchedulerOption {
	return func(s *Scheduler) {
		s.listen = response{status: status, body: []byte(body)}
	}
}

// WithEvent binds flows to an event key.
func WithEvent(key string, flows []byte) SchedulerOption {
	return func(s *Scheduler) {
		s.events[key] = flows
	}
}

// NewScheduler starts a fake scheduler that is closed when the test ends.
//
// Registration requests answer 200 with an empty body unless RespondWith is
// given. Unknown event keys answer 404.
func NewScheduler(t testing.TB, options ...SchedulerOption) *Scheduler {
	t.Helper()
	s := &Scheduler{
		listen: response{status: http.StatusOK},
		events: map[string][]byte{},
	}
	for _, option := range options {
		option(s)
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.server.Close)
	return s
}

// Endpoint is the base address to give to schedule.NewClient.
func (s *Scheduler) Endpoint() *url.URL {
	u, err := url.Parse(s.server.URL + "/api")
	if err != nil {
		panic(err)
	}
	return u
}

// HTTPClient returns a client for the fake server.
func (s *Scheduler) HTTPClient() *http.Client {
	return s.server.Client()
}

// Requests returns a copy of the requests received so far.
func (s *Scheduler) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.requests)
}

func (s *Scheduler) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/api")

	s.lock.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: path, RawQuery: r.URL.RawQuery, Body: body})
	listen := s.listen
	key, isEvent := strings.CutPrefix(path, "/event/")
	flows, found := s.events[key]
	s.lock.Unlock()

	switch {
	case r.Method == http.MethodGet && isEvent:
		if !found {
			http.Error(w, "No flow binding with the key", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(flows)
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/listen"):
		w.WriteHeader(listen.status)
		_, _ = w.Write(listen.body)
	default:
		http.NotFound(w, r)
	}
}
