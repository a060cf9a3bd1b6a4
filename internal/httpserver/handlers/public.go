package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

const publicCacheControl = "public, max-age=30"

// PublicPage serves the published page of a subdomain, taken from the URL or
// from the Host header.
func PublicPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := strings.ToLower(chi.URLParam(r, "subdomain"))
		if sub == "" {
			sub, _ = mw.SubdomainFrom(r.Context())
		}
		if sub == "" {
			writeError(w, http.StatusNotFound, "no status page for this host")
			return
		}

		page, ok := lookupPage(d, r, sub)
		if !ok {
			writeError(w, http.StatusNotFound, "no status page published at "+sub)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", publicCacheControl)
		w.WriteHeader(http.StatusOK)
		_ = encode(w, page)
	}
}

// lookupPage tries the local index, then the shared Redis cache, then renders
// the page from the database snapshot.
func lookupPage(d deps.Deps, r *http.Request, sub string) (view.Page, bool) {
	if d.MemoryIndex != nil {
		if page, ok := d.MemoryIndex.GetPage(sub); ok {
			return page, true
		}
	}

	ctx := r.Context()
	if d.PageCache != nil {
		page, err := d.PageCache.GetPage(ctx, sub)
		if err != nil {
			d.Logger.Warn("failed to read cached page",
				logger.String("subdomain", sub),
				logger.Error(err))
		}
		if page != nil {
			if d.MemoryIndex != nil {
				d.MemoryIndex.PutPage(sub, *page)
			}
			return *page, true
		}
	}

	if d.Sites == nil || d.Refresher == nil {
		return view.Page{}, false
	}
	site, err := d.Sites.LoadPublishedBySubdomain(ctx, sub)
	if errors.Is(err, domain.ErrNotFound) {
		return view.Page{}, false
	}
	if err != nil {
		d.Logger.Error("failed to load published site",
			logger.String("subdomain", sub),
			logger.Error(err))
		return view.Page{}, false
	}
	return d.Refresher.RefreshSite(ctx, site), true
}
