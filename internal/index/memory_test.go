package index

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if index.Count() != 0 {
		t.Errorf("NewMemoryIndex() should start with no pages, got %v", index.Count())
	}
	if _, ok := index.Live(); ok {
		t.Error("NewMemoryIndex() should start without a live result")
	}
}

func TestSetLive(t *testing.T) {
	index := NewMemoryIndex()

	index.SetLive(aggregator.Result{
		Monitors: []domain.MonitorData{{ID: domain.RealRef(1)}},
		Error:    "provider request failed",
	})

	res, ok := index.Live()
	if !ok {
		t.Fatal("Live() reported no result after SetLive()")
	}
	if len(res.Monitors) != 1 || res.Error == "" {
		t.Errorf("Live() = %+v", res)
	}
	if index.GetLastPoll().IsZero() {
		t.Error("GetLastPoll() is zero after SetLive()")
	}
}

func TestPages(t *testing.T) {
	index := NewMemoryIndex()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	index.PutPage("beta", view.Page{State: domain.PageState("operational"), GeneratedAt: at})
	index.PutPage("acme", view.Page{State: domain.PageState("partial")})
	index.PutPage("acme", view.Page{State: domain.PageState("major")})

	if index.Count() != 2 {
		t.Errorf("Count() = %v, want 2", index.Count())
	}
	if got := index.Subdomains(); len(got) != 2 || got[0] != "acme" || got[1] != "beta" {
		t.Errorf("Subdomains() = %v, want [acme beta]", got)
	}
	if page, ok := index.GetPage("acme"); !ok || page.State != "major" {
		t.Errorf("GetPage() = %v, %v, want the replaced page", page.State, ok)
	}
	if ts, ok := index.PageGeneratedAt("beta"); !ok || !ts.Equal(at) {
		t.Errorf("PageGeneratedAt() = %v, %v", ts, ok)
	}

	index.DeletePage("acme")
	if _, ok := index.GetPage("acme"); ok {
		t.Error("DeletePage() left the page in place")
	}
	if index.GetLastRefresh().IsZero() {
		t.Error("GetLastRefresh() is zero after PutPage()")
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			index.PutPage("site-"+strconv.Itoa(i%10), view.Page{})
		}(i)
		go func() {
			defer wg.Done()
			_ = index.Subdomains()
		}()
		go func() {
			defer wg.Done()
			index.SetLive(aggregator.Result{})
			_, _ = index.Live()
		}()
	}
	wg.Wait()

	if index.Count() != 10 {
		t.Errorf("Count() = %v, want 10", index.Count())
	}
}
