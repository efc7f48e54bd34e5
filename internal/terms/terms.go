// Package terms models taxonomies and their togglable filter terms.
package terms

import "fmt"

// Filter is one selectable term within a taxonomy. Active mirrors Checked
// and exists for focus/ARIA state in presentation layers.
type Filter struct {
	ID       int    `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Taxonomy string `json:"taxonomy"`
	Checked  bool   `json:"checked"`
	Active   bool   `json:"active"`
}

// Taxonomy groups filters under one axis. Checked is derived: true iff every
// child filter is checked. It is recomputed on every mutation, never treated
// as ground truth.
type Taxonomy struct {
	Slug    string    `json:"slug"`
	Name    string    `json:"name"`
	Filters []*Filter `json:"filters"`
	Checked bool      `json:"checked"`
}

func (t *Taxonomy) recompute() {
	t.Checked = len(t.Filters) > 0
	for _, f := range t.Filters {
		if !f.Checked {
			t.Checked = false
			break
		}
	}
}

// checkedIDs returns the ids of all checked filters, in filter order.
func (t *Taxonomy) checkedIDs() []any {
	ids := make([]any, 0, len(t.Filters))
	for _, f := range t.Filters {
		if f.Checked {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// Model holds every taxonomy for one view instance. It mutates state only;
// translating the returned id lists into query updates and refetching is the
// caller's job.
type Model struct {
	taxonomies []*Taxonomy
}

func NewModel(taxonomies []*Taxonomy) *Model {
	for _, t := range taxonomies {
		t.recompute()
	}
	return &Model{taxonomies: taxonomies}
}

// Taxonomies returns the model contents in their original order.
func (m *Model) Taxonomies() []*Taxonomy {
	return m.taxonomies
}

func (m *Model) taxonomy(slug string) (*Taxonomy, error) {
	for _, t := range m.taxonomies {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown taxonomy %q", slug)
}

// ToggleFilter flips the named filter and returns the taxonomy's checked term
// ids in filter order. An empty result means the caller should drop the
// taxonomy key from the query instead of storing an empty list.
func (m *Model) ToggleFilter(taxSlug string, filterID int) ([]any, error) {
	t, err := m.taxonomy(taxSlug)
	if err != nil {
		return nil, err
	}
	for _, f := range t.Filters {
		if f.ID == filterID {
			f.Checked = !f.Checked
			f.Active = f.Checked
			t.recompute()
			return t.checkedIDs(), nil
		}
	}
	return nil, fmt.Errorf("unknown filter %d in taxonomy %q", filterID, taxSlug)
}

// ToggleAll checks every filter when any is unchecked, and unchecks every
// filter when all are checked.
func (m *Model) ToggleAll(taxSlug string) ([]any, error) {
	t, err := m.taxonomy(taxSlug)
	if err != nil {
		return nil, err
	}
	allChecked := true
	for _, f := range t.Filters {
		if !f.Checked {
			allChecked = false
			break
		}
	}
	for _, f := range t.Filters {
		f.Checked = !allChecked
		f.Active = f.Checked
	}
	t.recompute()
	return t.checkedIDs(), nil
}

// Reset unchecks every filter in every taxonomy.
func (m *Model) Reset() {
	for _, t := range m.taxonomies {
		for _, f := range t.Filters {
			f.Checked = false
			f.Active = false
		}
		t.recompute()
	}
}

// TotalChecked counts checked filters across all taxonomies.
func (m *Model) TotalChecked() int {
	n := 0
	for _, t := range m.taxonomies {
		for _, f := range t.Filters {
			if f.Checked {
				n++
			}
		}
	}
	return n
}

// AnyFullyChecked reports whether at least one taxonomy has every filter
// checked.
func (m *Model) AnyFullyChecked() bool {
	for _, t := range m.taxonomies {
		if t.Checked {
			return true
		}
	}
	return false
}
