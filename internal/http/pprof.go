package http

import (
	"net/http"
	"net/http/pprof"
)

var profiles = []string{"goroutine", "heap", "allocs", "threadcreate", "block", "mutex"}

// registerPprof serves the runtime profiles under /debug/pprof.
func registerPprof(mux *http.ServeMux) {
	mux.Handle("GET /debug/pprof", http.RedirectHandler("/debug/pprof/", http.StatusFound))
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	for _, name := range profiles {
		mux.Handle("GET /debug/pprof/"+name, pprof.Handler(name))
	}
}
