package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
)

func init() { Register("public", registerPublic) }

// Public pages are reachable by anyone: no CIDR filter, rate limited per IP.
func registerPublic(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.CORS())
		r.Use(mw.RateLimit(d.PublicRateLimit, d.Logger))
		r.Use(mw.PublicHost(d.PublicBaseDomain, d.Logger))

		r.Get("/api/public", handlers.PublicPage(d))
		r.Get("/api/public/{subdomain}", handlers.PublicPage(d))

		// Preflights are answered by CORS before reaching the handler.
		r.Options("/api/public", http.NotFound)
		r.Options("/api/public/{subdomain}", http.NotFound)
	})
}
