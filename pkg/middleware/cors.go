package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins []string // e.g. ["https://app.example.com"] or ["*"]
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int // seconds for preflight cache
}

// DefaultCORSOptions returns the options used with the configured origins.
func DefaultCORSOptions(origins []string) CORSOptions {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
}

// CORS returns a middleware that adds Cross-Origin Resource Sharing headers
// and answers preflight requests.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: opts.AllowedMethods,
		AllowedHeaders: opts.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         opts.MaxAge,
	})
}
