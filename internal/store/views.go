package store

// Derived read-only views used by presentation. Each is recomputed from
// current state under the mutex; nothing here is cached between calls.

// None reports a completely empty view: no known pages and no totals.
func (s *Store) None() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len() == 0 && s.info.TotalPages == 0 && s.info.TotalItems == 0
}

// Loading reports whether the current page is visible but has no items yet.
// A fetch in flight and a genuinely empty result read the same; that is
// deliberate.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return false
	}
	p := s.cache.Get(s.query.Page())
	return p != nil && len(p.Items) == 0 && p.Visible
}

// HasNext reports whether pagination forward is possible: more pages exist
// and the current page has visible content.
func (s *Store) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.query.Page() >= s.info.TotalPages {
		return false
	}
	p := s.cache.Get(s.query.Page())
	return p != nil && len(p.Items) > 0 && p.Visible
}

// HasPrevious reports whether pagination backward is possible.
func (s *Store) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.Page() > 1
}

// Filtering reports whether at least one taxonomy is fully checked.
func (s *Store) Filtering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized && s.model.AnyFullyChecked()
}

// Items flattens every visible page's items in page-number order.
func (s *Store) Items() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.VisibleItems()
}

// VisibleCount sums item counts over visible pages.
func (s *Store) VisibleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.VisibleCount()
}

// CheckedFilters counts checked filters across all taxonomies.
func (s *Store) CheckedFilters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.TotalChecked()
}
