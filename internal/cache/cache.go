// Package cache stores fetched result pages keyed by page number.
package cache

import (
	"sort"

	"github.com/openfolio/postfeed/internal/query"
)

// Page is one fetched batch of results. Snapshot is the query used to fetch
// it, including its page number, and is immutable once set. Items stay empty
// until the fetch resolves; a failed fetch resolves with empty items.
type Page struct {
	Number   int         `json:"number"`
	Items    []any       `json:"items"`
	Snapshot query.Query `json:"snapshot"`
	Visible  bool        `json:"visible"`
}

// Cache is a sparse page-number-indexed store. Pages are addressed 1..N;
// page 0 never exists. There is no eviction beyond InvalidateAll — every
// filter mutation starts a new generation.
type Cache struct {
	pages map[int]*Page
}

func New() *Cache {
	return &Cache{pages: make(map[int]*Page)}
}

// Get returns the page at the given number, or nil when absent.
func (c *Cache) Get(number int) *Page {
	return c.pages[number]
}

func (c *Cache) Put(number int, p *Page) {
	if number < 1 {
		return
	}
	p.Number = number
	c.pages[number] = p
}

// InvalidateAll drops every stored page. Called on any filter mutation.
func (c *Cache) InvalidateAll() {
	c.pages = make(map[int]*Page)
}

// IsFresh reports whether a page exists at the given number and was fetched
// for the same generation: its snapshot with "page" stripped structurally
// equals the candidate with "page" stripped.
func (c *Cache) IsFresh(number int, candidate query.Query) bool {
	p := c.pages[number]
	if p == nil {
		return false
	}
	return p.Snapshot.WithoutPage().Equal(candidate.WithoutPage())
}

func (c *Cache) Len() int {
	return len(c.pages)
}

// SetVisible marks the page at the given number visible if it exists.
func (c *Cache) SetVisible(number int) {
	if p := c.pages[number]; p != nil {
		p.Visible = true
	}
}

// VisibleItems flattens the items of every visible page, in page-number
// order.
func (c *Cache) VisibleItems() []any {
	var items []any
	for _, p := range c.sorted() {
		if p.Visible {
			items = append(items, p.Items...)
		}
	}
	return items
}

// VisibleCount sums item counts over visible pages.
func (c *Cache) VisibleCount() int {
	n := 0
	for _, p := range c.pages {
		if p.Visible {
			n += len(p.Items)
		}
	}
	return n
}

func (c *Cache) sorted() []*Page {
	out := make([]*Page, 0, len(c.pages))
	for _, p := range c.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
