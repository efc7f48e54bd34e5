// Package query models the filter/pagination query and its URL codec.
package query

// Query maps parameter names to scalar values or ordered lists of scalars.
// It always carries "page" and "per_page"; additional keys are taxonomy
// slugs mapped to lists of term ids.
type Query map[string]any

// New returns a fresh default query. Every view instance gets its own copy;
// callers must never share a Query across instances.
func New(perPage int) Query {
	if perPage < 1 {
		perPage = 10
	}
	return Query{"page": 1, "per_page": perPage}
}

// Page returns the current page number, defaulting to 1 when the key is
// missing or malformed.
func (q Query) Page() int {
	if p, ok := toInt(q["page"]); ok && p >= 1 {
		return p
	}
	return 1
}

// SetPage sets the page number. Values below 1 are rejected and the query is
// left unchanged.
func (q Query) SetPage(page int) bool {
	if page < 1 {
		return false
	}
	q["page"] = page
	return true
}

// Clone deep-copies the query, including list values.
func (q Query) Clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// WithoutPage returns a copy with the "page" key removed. The result is the
// generation key used to test page-cache freshness.
func (q Query) WithoutPage() Query {
	out := q.Clone()
	delete(out, "page")
	return out
}

// Equal reports structural equality: same keys, and per key equal scalars or
// equal-length lists with equal elements in order. Numeric values compare by
// value regardless of int/float64 representation.
func (q Query) Equal(other Query) bool {
	if len(q) != len(other) {
		return false
	}
	for k, v := range q {
		w, ok := other[k]
		if !ok {
			return false
		}
		if !valueEqual(v, w) {
			return false
		}
	}
	return true
}

// Restrict returns a copy containing only the keys present in allowed.
func (q Query) Restrict(allowed []string) Query {
	out := make(Query, len(q))
	for _, k := range allowed {
		if v, ok := q[k]; ok {
			out[k] = v
		}
	}
	return out
}

func valueEqual(a, b any) bool {
	la, aok := a.([]any)
	lb, bok := b.([]any)
	if aok != bok {
		return false
	}
	if aok {
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !scalarEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return scalarEqual(a, b)
}

func scalarEqual(a, b any) bool {
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}
	return a == b
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
