package store

import (
	"context"
	"log/slog"

	"github.com/openfolio/postfeed/internal/cache"
	"github.com/openfolio/postfeed/internal/query"
)

// fetchKind classifies why a candidate page is worth requesting.
type fetchKind int

const (
	fetchNone fetchKind = iota
	fetchCurrent
	fetchNext
	fetchPrevious
)

func (k fetchKind) String() string {
	switch k {
	case fetchCurrent:
		return "current"
	case fetchNext:
		return "next"
	case fetchPrevious:
		return "previous"
	default:
		return "none"
	}
}

// Run executes one fetch/prefetch sequence over the given page offsets
// relative to the current page, default [0, +1]. Offsets are processed
// strictly in order, each awaiting the previous request's resolution, because
// later offsets' eligibility depends on the cache and pagination totals
// established by earlier ones. A failed offset never aborts the rest of the
// sequence. Results arriving after a filter mutation superseded this run are
// discarded.
func (s *Store) Run(ctx context.Context, offsets []int) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	for _, offset := range offsets {
		s.runOffset(ctx, gen, offset)
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *Store) runOffset(ctx context.Context, gen uint64, offset int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}

	current := s.query.Page()
	target := current + offset
	if target <= 0 {
		s.mu.Unlock()
		return
	}
	if s.cache.IsFresh(target, s.query) {
		s.mu.Unlock()
		return
	}

	kind := s.classify(target, current)
	if kind == fetchNone {
		s.mu.Unlock()
		return
	}

	targetQuery := s.query.Clone()
	targetQuery.SetPage(target)
	outbound := query.Encode(targetQuery.Restrict(s.allowed), nil, s.rename)

	// The page entry exists from the first fetch attempt on. Until the
	// request resolves it reads as zero items, which is what the loading
	// view state keys off; a failed request leaves it that way.
	s.cache.Put(target, &cache.Page{
		Items:    []any{},
		Snapshot: targetQuery,
		Visible:  target <= current,
	})

	endpoint := s.postsEndpoint
	s.mu.Unlock()

	slog.Debug("fetch", "page", target, "kind", kind, "query", outbound)
	items, info, err := s.client.FetchPage(ctx, endpoint, outbound)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		slog.Debug("discarding superseded result", "page", target)
		return
	}

	if err != nil {
		s.reporter.Report(err, targetQuery)
		return
	}

	s.info = info

	fn := s.mappers.ForEndpoint(endpoint)
	mapped := make([]any, 0, len(items))
	for _, raw := range items {
		item, err := fn(raw)
		if err != nil {
			s.reporter.Report(err, targetQuery)
			continue
		}
		mapped = append(mapped, item)
	}

	if p := s.cache.Get(target); p != nil {
		p.Items = mapped
	}

	if kind == fetchCurrent {
		s.location.ReplaceQuery(query.Encode(targetQuery.Restrict(s.allowed), s.omit, s.rename))
	}
}

// classify decides whether a target page is the current page, a prefetchable
// next page, or a backfillable previous page. The current page is only
// fetchable while it lies inside the known totals, or before any totals are
// known at all; pagination past the end therefore leaves the target
// unresolved. Caller holds mu.
func (s *Store) classify(target, current int) fetchKind {
	switch {
	case target == current && (s.info.TotalPages == 0 || target <= s.info.TotalPages):
		return fetchCurrent
	case current < s.info.TotalPages && target > current:
		return fetchNext
	case current > 1 && target < current:
		return fetchPrevious
	default:
		return fetchNone
	}
}
