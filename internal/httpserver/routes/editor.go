package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
)

func init() { Register("editor", registerEditor) }

func registerEditor(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Route("/api/draft", func(r chi.Router) {
			r.Get("/", handlers.GetDraft(d))
			r.Patch("/", handlers.PatchDraft(d))
			r.Get("/status", handlers.GetSaveStatus(d))
			r.Get("/dirty", handlers.GetDirty(d))
			r.Get("/view", handlers.DraftView(d))
			r.Post("/refresh", handlers.Refresh(d))
			r.Get("/monitors", handlers.AvailableMonitors(d))
			r.Post("/presence", handlers.Presence(d))

			r.Post("/demo-monitors", handlers.AddDemoMonitor(d))

			r.Post("/annotations", handlers.AddAnnotation(d))
			r.Delete("/annotations/{updateID}", handlers.DeleteAnnotation(d))

			r.Post("/maintenance", handlers.AddMaintenance(d))
			r.Put("/maintenance/{windowID}", handlers.UpdateMaintenance(d))
			r.Delete("/maintenance/{windowID}", handlers.DeleteMaintenance(d))
		})

		r.Get("/api/scenarios", handlers.Scenarios(d))
		r.Post("/api/sites/{siteID}/publish", handlers.Publish(d))
	})
}
