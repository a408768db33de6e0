package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// Middleware allows cross-origin requests from allowOrigins.
func Middleware(allowOrigins []string, allowHeaders []string, next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowOrigins,
		AllowedHeaders: allowHeaders,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(next)
}
