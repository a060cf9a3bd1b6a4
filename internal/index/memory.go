package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

// MemoryIndex holds the latest editor poll result and the rendered public pages.
// Public pages are served from here when Redis is unavailable.
type MemoryIndex struct {
	mu          sync.RWMutex
	live        aggregator.Result
	hasLive     bool
	lastPoll    time.Time            // Timestamp of the last editor poll
	pages       map[string]view.Page // subdomain -> Page
	lastRefresh time.Time            // Timestamp of the last public refresh
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		pages: make(map[string]view.Page),
	}
}

// SetLive stores the result of an editor poll
func (idx *MemoryIndex) SetLive(res aggregator.Result) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.live = res
	idx.hasLive = true
	idx.lastPoll = time.Now()
}

// Live returns the last editor poll result
func (idx *MemoryIndex) Live() (aggregator.Result, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.live, idx.hasLive
}

// GetLastPoll returns the timestamp of the last editor poll
func (idx *MemoryIndex) GetLastPoll() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastPoll
}

// ─────────────────────────────────────────────────────────────────
// Public pages
// ─────────────────────────────────────────────────────────────────

// PutPage adds or replaces the page served under subdomain
func (idx *MemoryIndex) PutPage(subdomain string, page view.Page) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.pages[subdomain] = page
	idx.lastRefresh = time.Now()
}

// GetPage retrieves the page of subdomain
func (idx *MemoryIndex) GetPage(subdomain string) (view.Page, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	page, ok := idx.pages[subdomain]
	return page, ok
}

// DeletePage removes a page from the index
func (idx *MemoryIndex) DeletePage(subdomain string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.pages, subdomain)
}

// Subdomains returns the sorted subdomains that have a page
func (idx *MemoryIndex) Subdomains() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.pages))
	for sub := range idx.pages {
		out = append(out, sub)
	}
	sort.Strings(out)
	return out
}

// PageGeneratedAt returns when the page of subdomain was built
func (idx *MemoryIndex) PageGeneratedAt(subdomain string) (time.Time, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	page, ok := idx.pages[subdomain]
	return page.GeneratedAt, ok
}

// Count returns the number of public pages in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.pages)
}

// GetLastRefresh returns the timestamp of the last public page update
func (idx *MemoryIndex) GetLastRefresh() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRefresh
}
