package mw

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets browsers read public pages from any origin with safe methods only.
// Preflights are answered here and never reach the handler.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         600,
	})
}
