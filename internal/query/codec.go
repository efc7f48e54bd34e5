package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultAllowed lists the query parameters forwarded to the remote
// collection endpoint. Callers extend it with custom taxonomy slugs.
var DefaultAllowed = []string{
	"context", "page", "per_page", "search", "after", "author",
	"author_exclude", "before", "exclude", "include", "offset", "order",
	"orderby", "slug", "status", "tax_relation", "categories",
	"categories_exclude", "tags", "tags_exclude", "sticky",
}

// Encode serializes a query to a leading-"?" query string, or "" when no keys
// remain. Keys in omit are skipped; keys present in rename are emitted under
// the renamed external name. List values become repeated "key[]=v" pairs in
// list order. Keys are emitted in sorted order so output is deterministic.
func Encode(q Query, omit []string, rename map[string]string) string {
	skip := make(map[string]bool, len(omit))
	for _, k := range omit {
		skip[k] = true
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('?')
	first := true
	// Keys are config-controlled identifiers; only values need escaping.
	// Bracket suffixes on list keys stay literal, matching what the remote
	// API expects.
	pair := func(key, val string) {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(val))
	}

	for _, k := range keys {
		name := k
		if renamed, ok := rename[k]; ok {
			name = renamed
		}
		switch v := q[k].(type) {
		case []any:
			for _, item := range v {
				pair(name+"[]", scalarString(item))
			}
		default:
			pair(name, scalarString(v))
		}
	}
	return b.String()
}

// Decode parses a query string (leading "?" optional) into a Query. Bracketed
// keys ("key[]") collapse into an ordered list under "key". Values that parse
// as numbers become ints or float64s. The rename map is applied in reverse so
// external names decode back to their internal keys.
func Decode(s string, rename map[string]string) Query {
	s = strings.TrimPrefix(s, "?")
	q := make(Query)
	if s == "" {
		return q
	}

	unrename := make(map[string]string, len(rename))
	for internal, external := range rename {
		unrename[external] = internal
	}

	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			continue
		}

		isList := strings.HasSuffix(key, "[]")
		key = strings.TrimSuffix(key, "[]")
		if internal, ok := unrename[key]; ok {
			key = internal
		}

		parsed := parseScalar(val)
		if isList {
			list, _ := q[key].([]any)
			q[key] = append(list, parsed)
			continue
		}
		q[key] = parsed
	}
	return q
}

func scalarString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return ""
	}
}

func parseScalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
