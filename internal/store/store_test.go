package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/mapper"
	"github.com/openfolio/postfeed/internal/query"
)

type recordingReporter struct {
	mu      sync.Mutex
	errs    []error
	queries []query.Query
}

func (r *recordingReporter) Report(err error, q query.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.queries = append(r.queries, q)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// collectionServer fakes the remote API: /posts serves pages out of a fixed
// total, /terms serves one "colors" taxonomy.
func collectionServer(t *testing.T, totalItems, perPage int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"slug": "colors",
				"name": "Colors",
				"terms": []map[string]any{
					{"id": 1, "slug": "red", "name": "Red"},
					{"id": 2, "slug": "blue", "name": "Blue"},
				},
			},
		})
	})

	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		totalPages := (totalItems + perPage - 1) / perPage

		w.Header().Set("X-WP-Total", strconv.Itoa(totalItems))
		w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))

		var items []map[string]any
		start := (page - 1) * perPage
		for i := start; i < start+perPage && i < totalItems; i++ {
			items = append(items, map[string]any{
				"id":    i + 1,
				"slug":  fmt.Sprintf("post-%d", i+1),
				"title": map[string]any{"rendered": fmt.Sprintf("Post %d", i+1)},
			})
		}
		if items == nil {
			items = []map[string]any{}
		}
		json.NewEncoder(w).Encode(items)
	})

	return httptest.NewServer(mux)
}

func newTestStore(srvURL string, loc Location, rep ErrorReporter) *Store {
	return New(Options{
		Client:        client.New(srvURL, "", "en"),
		Mappers:       mapper.Defaults("/posts", "/terms"),
		PostsEndpoint: "/posts",
		TermsEndpoint: "/terms",
		PerPage:       5,
		Location:      loc,
		Reporter:      rep,
	})
}

func TestInit_FetchesCurrentAndPrefetchesNext(t *testing.T) {
	srv := collectionServer(t, 11, 5) // 3 pages
	defer srv.Close()

	loc := NewMemoryLocation("")
	s := newTestStore(srv.URL, loc, &recordingReporter{})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if !s.Initialized() {
		t.Error("store should be initialized after the first run")
	}
	p1 := s.cache.Get(1)
	if p1 == nil || len(p1.Items) != 5 || !p1.Visible {
		t.Fatalf("page 1: %#v", p1)
	}
	p2 := s.cache.Get(2)
	if p2 == nil || len(p2.Items) != 5 {
		t.Fatalf("page 2 should be prefetched: %#v", p2)
	}
	if p2.Visible {
		t.Error("prefetched page 2 must not be visible")
	}
	if got := s.VisibleCount(); got != 5 {
		t.Errorf("visible count: got %d, want 5", got)
	}
	if loc.Query() != "?page=1&per_page=5" {
		t.Errorf("address bar: got %q", loc.Query())
	}
	if !s.HasNext() {
		t.Error("HasNext should be true with 3 total pages")
	}
	if s.HasPrevious() {
		t.Error("HasPrevious should be false on page 1")
	}
	if s.Loading() {
		t.Error("Loading should be false once page 1 has items")
	}
	if s.None() {
		t.Error("None should be false after a successful fetch")
	}
}

func TestInit_RestoresStateFromAddressBar(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	loc := NewMemoryLocation("?page=2&per_page=5&colors[]=1")
	s := newTestStore(srv.URL, loc, &recordingReporter{})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if got := s.Query().Page(); got != 2 {
		t.Errorf("page: got %d, want 2", got)
	}
	tax := s.Taxonomies()[0]
	if !tax.Filters[0].Checked || tax.Filters[1].Checked {
		t.Errorf("filter restore: got [%v %v], want [true false]",
			tax.Filters[0].Checked, tax.Filters[1].Checked)
	}
	if s.CheckedFilters() != 1 {
		t.Errorf("checked filters: got %d, want 1", s.CheckedFilters())
	}
}

func TestToggleFilter_InvalidatesAndRefetches(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.Paginate(ctx, 1)
	if got := s.Query().Page(); got != 2 {
		t.Fatalf("setup: page %d", got)
	}

	if err := s.ToggleFilter(ctx, "colors", 1); err != nil {
		t.Fatalf("ToggleFilter: %v", err)
	}

	q := s.Query()
	if q.Page() != 1 {
		t.Errorf("page after filter change: got %d, want 1", q.Page())
	}
	ids, ok := q["colors"].([]any)
	if !ok || len(ids) != 1 || ids[0] != 1 {
		t.Errorf("query colors: got %#v, want [1]", q["colors"])
	}

	// every surviving cache entry must belong to the new generation
	s.mu.Lock()
	defer s.mu.Unlock()
	for n := 1; n <= 3; n++ {
		if p := s.cache.Get(n); p != nil {
			if !p.Snapshot.WithoutPage().Equal(s.query.WithoutPage()) {
				t.Errorf("page %d carries a stale snapshot: %#v", n, p.Snapshot)
			}
		}
	}
}

func TestToggleFilter_EmptySelectionRemovesKey(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := s.ToggleFilter(ctx, "colors", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleFilter(ctx, "colors", 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Query()["colors"]; ok {
		t.Error("colors key should be removed when no terms are checked")
	}
}

func TestToggleAll_ChecksEverythingAndSetsFiltering(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.ToggleFilter(ctx, "colors", 1); err != nil {
		t.Fatal(err)
	}

	if err := s.ToggleAll(ctx, "colors"); err != nil {
		t.Fatalf("ToggleAll: %v", err)
	}
	ids, ok := s.Query()["colors"].([]any)
	if !ok || len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("query colors: got %#v, want [1 2]", s.Query()["colors"])
	}
	if !s.Filtering() {
		t.Error("Filtering should be true with a fully checked taxonomy")
	}

	s.ResetFilters(ctx)
	if _, ok := s.Query()["colors"]; ok {
		t.Error("reset should drop taxonomy keys")
	}
	if s.Filtering() {
		t.Error("Filtering should be false after reset")
	}
}

func TestPaginate_PastEndLeavesTargetUnresolved(t *testing.T) {
	srv := collectionServer(t, 4, 5) // single page
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.HasNext() {
		t.Fatal("HasNext should be false with a single page")
	}

	s.Paginate(ctx, 1)

	if got := s.Query().Page(); got != 2 {
		t.Errorf("page: got %d, want 2", got)
	}
	s.mu.Lock()
	p2 := s.cache.Get(2)
	s.mu.Unlock()
	if p2 != nil {
		t.Errorf("page 2 should stay unresolved past the end, got %#v", p2)
	}
}

func TestPaginate_RejectsPageZero(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	s.Paginate(ctx, -1)
	if got := s.Query().Page(); got != 1 {
		t.Errorf("page: got %d, want 1 (decrement below 1 is a no-op)", got)
	}
}

func TestPaginate_RevealsPrefetchedPage(t *testing.T) {
	srv := collectionServer(t, 11, 5)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	s.Paginate(ctx, 1)
	if got := s.VisibleCount(); got != 10 {
		t.Errorf("visible count after paginating: got %d, want 10", got)
	}
	items := s.Items()
	if len(items) != 10 {
		t.Fatalf("flattened items: got %d, want 10", len(items))
	}
	first, ok := items[0].(mapper.Post)
	if !ok || first.ID != 1 {
		t.Errorf("first item: %#v", items[0])
	}
	last, ok := items[9].(mapper.Post)
	if !ok || last.ID != 10 {
		t.Errorf("last item: %#v", items[9])
	}
	if !s.HasPrevious() {
		t.Error("HasPrevious should be true on page 2")
	}
}

func TestRun_HTTPFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rep := &recordingReporter{}
	loc := NewMemoryLocation("")
	s := newTestStore(srv.URL, loc, rep)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if rep.count() != 1 {
		t.Fatalf("reporter invoked %d times, want exactly 1", rep.count())
	}
	if rep.queries[0].Page() != 1 {
		t.Errorf("reported query page: got %d", rep.queries[0].Page())
	}
	if loc.Query() != "" {
		t.Errorf("address bar must not be updated on failure, got %q", loc.Query())
	}

	s.mu.Lock()
	p1 := s.cache.Get(1)
	s.mu.Unlock()
	if p1 == nil || len(p1.Items) != 0 {
		t.Errorf("failed page should resolve with empty items: %#v", p1)
	}
	if !s.Loading() {
		t.Error("empty visible current page reads as loading, by design")
	}
}

func TestRun_MalformedPayload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rep := &recordingReporter{}
	s := newTestStore(srv.URL, NewMemoryLocation(""), rep)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if rep.count() != 1 {
		t.Fatalf("reporter invoked %d times, want 1", rep.count())
	}
	payloadErr, ok := rep.errs[0].(*client.PayloadError)
	if !ok {
		t.Fatalf("got %T, want *client.PayloadError", rep.errs[0])
	}
	if len(payloadErr.Raw) == 0 {
		t.Error("raw payload should be surfaced for diagnostics")
	}
}

func TestRun_SupersededResultsAreDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/terms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	var served sync.WaitGroup
	mux.HandleFunc("/posts", func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.Header().Set("X-WP-Total", "1")
		w.Header().Set("X-WP-TotalPages", "1")
		w.Write([]byte(`[{"id":1,"slug":"late","title":{"rendered":"Late"}}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestStore(srv.URL, NewMemoryLocation(""), &recordingReporter{})

	served.Add(1)
	go func() {
		defer served.Done()
		s.Run(context.Background(), []int{0})
	}()

	// supersede the run while its request is in flight
	<-started
	s.mu.Lock()
	s.gen++
	s.cache.InvalidateAll()
	s.mu.Unlock()

	close(release)
	served.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Len() != 0 {
		t.Error("late results from a superseded run must be discarded")
	}
	if s.info.TotalPages != 0 {
		t.Error("pagination totals from a superseded run must be discarded")
	}
}
