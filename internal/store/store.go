// Package store is the composition root: it owns the query, the page cache,
// the term model, and the fetch controller that keeps them synchronized with
// the remote collection and the address bar.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openfolio/postfeed/internal/cache"
	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/mapper"
	"github.com/openfolio/postfeed/internal/query"
	"github.com/openfolio/postfeed/internal/terms"
)

// Options configures a Store. Client, Mappers and endpoints are required;
// Location and Reporter fall back to in-memory and slog implementations.
type Options struct {
	Client        *client.Client
	Mappers       mapper.Registry
	PostsEndpoint string
	TermsEndpoint string
	PerPage       int
	// ExtraParams extends the default query allow-list. Taxonomy slugs
	// discovered during Init are added automatically.
	ExtraParams []string
	// OmitParams are never written to the address bar.
	OmitParams []string
	Rename     map[string]string
	Location   Location
	Reporter   ErrorReporter
	// LoadSnapshots makes Init seed the page cache from the on-disk snapshot
	// matching the initial query's generation, so single-shot CLI runs reuse
	// pages fetched by earlier invocations. Off by default.
	LoadSnapshots bool
}

// Store holds all mutable state for one mounted view instance. Construct one
// per view with New; instances never share Query, Page, or Taxonomy values.
// All access is serialized through mu, which stands in for the single-threaded
// scheduling of the reference environment.
type Store struct {
	mu sync.Mutex

	client        *client.Client
	mappers       mapper.Registry
	postsEndpoint string
	termsEndpoint string
	allowed       []string
	omit          []string
	rename        map[string]string
	location      Location
	reporter      ErrorReporter

	query       query.Query
	cache       *cache.Cache
	model       *terms.Model
	info        client.PageInfo
	initialized bool
	// gen is bumped by every filter mutation; a Run started under an older
	// generation discards its late results instead of overwriting newer state.
	gen           uint64
	loadSnapshots bool
}

func New(opts Options) *Store {
	if opts.Location == nil {
		opts.Location = NewMemoryLocation("")
	}
	if opts.Reporter == nil {
		opts.Reporter = slogReporter{}
	}

	allowed := make([]string, 0, len(query.DefaultAllowed)+len(opts.ExtraParams))
	allowed = append(allowed, query.DefaultAllowed...)
	allowed = append(allowed, opts.ExtraParams...)

	return &Store{
		client:        opts.Client,
		mappers:       opts.Mappers,
		postsEndpoint: opts.PostsEndpoint,
		termsEndpoint: opts.TermsEndpoint,
		allowed:       allowed,
		omit:          opts.OmitParams,
		rename:        opts.Rename,
		location:      opts.Location,
		reporter:      opts.Reporter,
		query:         query.New(opts.PerPage),
		cache:         cache.New(),
		model:         terms.NewModel(nil),
		loadSnapshots: opts.LoadSnapshots,
	}
}

// Init reads the address bar, populates the taxonomies from the terms
// endpoint, and performs the initial fetch run for the current and next page.
// Taxonomies are populated exactly once; later calls to the toggle operations
// only mutate them.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	decoded := query.Decode(s.location.Query(), s.rename)
	for k, v := range decoded {
		s.query[k] = v
	}
	if s.query.Page() < 1 {
		s.query.SetPage(1)
	}
	if s.loadSnapshots {
		meta, ok, err := s.cache.LoadSnapshot(s.generationKey())
		if err != nil {
			slog.Warn("loading cache snapshot", "error", err)
		} else if ok {
			s.info.TotalPages = meta.TotalPages
			s.info.TotalItems = meta.TotalItems
		}
	}
	s.mu.Unlock()

	if err := s.loadTerms(ctx); err != nil {
		// Non-fatal: filtering is unavailable but the collection still loads.
		s.reporter.Report(err, s.Query())
	}

	s.Run(ctx, []int{0, 1})
	return nil
}

func (s *Store) loadTerms(ctx context.Context) error {
	raw, _, err := s.client.FetchPage(ctx, s.termsEndpoint, "")
	if err != nil {
		return fmt.Errorf("fetching terms: %w", err)
	}

	fn := s.mappers.ForEndpoint(s.termsEndpoint)
	var taxonomies []*terms.Taxonomy
	for _, item := range raw {
		mapped, err := fn(item)
		if err != nil {
			return fmt.Errorf("mapping taxonomy: %w", err)
		}
		tax, ok := mapped.(*terms.Taxonomy)
		if !ok {
			return fmt.Errorf("terms mapper returned %T, want *terms.Taxonomy", mapped)
		}
		taxonomies = append(taxonomies, tax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = terms.NewModel(taxonomies)
	for _, tax := range taxonomies {
		s.allowed = append(s.allowed, tax.Slug)
	}
	s.syncCheckedFromQuery()
	return nil
}

// syncCheckedFromQuery re-checks filters named by taxonomy keys already in
// the query, so a shared URL restores its filter state. Caller holds mu.
func (s *Store) syncCheckedFromQuery() {
	for _, tax := range s.model.Taxonomies() {
		ids, ok := s.query[tax.Slug].([]any)
		if !ok {
			continue
		}
		want := make(map[int]bool, len(ids))
		for _, id := range ids {
			if n, ok := id.(int); ok {
				want[n] = true
			}
		}
		for _, f := range tax.Filters {
			if want[f.ID] && !f.Checked {
				if _, err := s.model.ToggleFilter(tax.Slug, f.ID); err != nil {
					slog.Warn("restoring filter from address bar", "taxonomy", tax.Slug, "id", f.ID, "error", err)
				}
			}
		}
	}
}

// Paginate moves the current page by delta and fetches the target and its
// neighbor in that direction. Deltas that would land on page 0 or below are
// silent no-ops. The target page is revealed optimistically so an already
// prefetched page appears without waiting on the network.
func (s *Store) Paginate(ctx context.Context, delta int) {
	s.mu.Lock()
	target := s.query.Page() + delta
	if !s.query.SetPage(target) {
		s.mu.Unlock()
		return
	}
	s.cache.SetVisible(target)
	s.mu.Unlock()

	s.Run(ctx, []int{0, delta})
}

// ToggleFilter flips one filter term and refetches from page 1.
func (s *Store) ToggleFilter(ctx context.Context, taxSlug string, filterID int) error {
	s.mu.Lock()
	ids, err := s.model.ToggleFilter(taxSlug, filterID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyTermSelection(taxSlug, ids)
	s.mu.Unlock()

	s.Run(ctx, []int{0, 1})
	return nil
}

// ToggleAll checks or unchecks an entire taxonomy and refetches from page 1.
func (s *Store) ToggleAll(ctx context.Context, taxSlug string) error {
	s.mu.Lock()
	ids, err := s.model.ToggleAll(taxSlug)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyTermSelection(taxSlug, ids)
	s.mu.Unlock()

	s.Run(ctx, []int{0, 1})
	return nil
}

// ResetFilters unchecks everything, drops all taxonomy keys from the query,
// and refetches from page 1.
func (s *Store) ResetFilters(ctx context.Context) {
	s.mu.Lock()
	s.model.Reset()
	for _, tax := range s.model.Taxonomies() {
		delete(s.query, tax.Slug)
	}
	s.invalidate()
	s.mu.Unlock()

	s.Run(ctx, []int{0, 1})
}

// applyTermSelection writes a taxonomy's checked ids into the query (removing
// the key when none are checked) and starts a new cache generation.
// Caller holds mu.
func (s *Store) applyTermSelection(taxSlug string, ids []any) {
	if len(ids) == 0 {
		delete(s.query, taxSlug)
	} else {
		s.query[taxSlug] = ids
	}
	s.invalidate()
}

// invalidate starts a new generation: any filter mutation makes every cached
// page stale and returns to page 1. Caller holds mu.
func (s *Store) invalidate() {
	s.query.SetPage(1)
	s.cache.InvalidateAll()
	s.gen++
}

// Query returns a copy of the current query.
func (s *Store) Query() query.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.Clone()
}

// PageInfo returns the pagination metadata of the most recently completed
// response.
func (s *Store) PageInfo() client.PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Taxonomies exposes the term model for presentation. Callers must treat the
// returned values as read-only; all mutation goes through the toggle
// operations.
func (s *Store) Taxonomies() []*terms.Taxonomy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Taxonomies()
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// generationKey serializes the filter portion of the query. Caller holds mu.
func (s *Store) generationKey() string {
	return query.Encode(s.query.WithoutPage(), nil, nil)
}

// SaveSnapshot persists the current cache generation to disk for reuse by a
// later process with the same query. Surfaces outside the engine call it;
// the fetch controller never does.
func (s *Store) SaveSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := cache.Meta{TotalPages: s.info.TotalPages, TotalItems: s.info.TotalItems}
	return s.cache.SaveSnapshot(s.generationKey(), meta)
}
