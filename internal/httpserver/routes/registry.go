package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

// group is one self-registered route set.
type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var groups []group

// Register adds a named route set from an init function. Middlewares apply
// to that set only.
func Register(name string, reg Registrar, mws ...Middleware) {
	for _, g := range groups {
		if g.name == name {
			panic("routes: duplicate route group " + name)
		}
	}
	groups = append(groups, group{name: name, reg: reg, mws: mws})
}

// Names lists the registered route sets in registration order.
func Names() []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.name)
	}
	return out
}

// RegisterAll mounts every route set on r. Called once from httpserver.New.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		target := r
		if len(g.mws) > 0 {
			target = r.With(g.mws...)
		}
		g.reg(target, d)
		if d.Logger != nil {
			d.Logger.Debug("route group mounted",
				logger.String("group", g.name),
				logger.Int("middlewares", len(g.mws)))
		}
	}
}
