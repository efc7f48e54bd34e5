package mapper

import (
	"testing"

	"github.com/openfolio/postfeed/internal/terms"
)

func TestPostFunc_UnwrapsRendered(t *testing.T) {
	raw := map[string]any{
		"id":      float64(42),
		"date":    "2024-03-01T10:00:00",
		"slug":    "hello-world",
		"link":    "https://example.com/hello-world",
		"title":   map[string]any{"rendered": "Hello World"},
		"excerpt": map[string]any{"rendered": "<p>Intro.</p>"},
	}

	got, err := PostFunc(raw)
	if err != nil {
		t.Fatalf("PostFunc: %v", err)
	}
	post, ok := got.(Post)
	if !ok {
		t.Fatalf("got %T, want Post", got)
	}
	if post.ID != 42 {
		t.Errorf("id: got %d, want 42", post.ID)
	}
	if post.Title != "Hello World" {
		t.Errorf("title: got %q", post.Title)
	}
	if post.Excerpt != "<p>Intro.</p>" {
		t.Errorf("excerpt: got %q", post.Excerpt)
	}
}

func TestTaxonomyFunc(t *testing.T) {
	raw := map[string]any{
		"slug": "colors",
		"name": "Colors",
		"terms": []any{
			map[string]any{"id": float64(1), "slug": "red", "name": "Red"},
			map[string]any{"id": float64(2), "slug": "blue", "name": "Blue"},
		},
	}

	got, err := TaxonomyFunc(raw)
	if err != nil {
		t.Fatalf("TaxonomyFunc: %v", err)
	}
	tax, ok := got.(*terms.Taxonomy)
	if !ok {
		t.Fatalf("got %T, want *terms.Taxonomy", got)
	}
	if tax.Slug != "colors" || len(tax.Filters) != 2 {
		t.Fatalf("taxonomy: %#v", tax)
	}
	f := tax.Filters[0]
	if f.ID != 1 || f.Slug != "red" || f.Taxonomy != "colors" || f.Checked {
		t.Errorf("filter: %#v", f)
	}
}

func TestForEndpoint_MissingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing endpoint transform")
		}
	}()
	Registry{}.ForEndpoint("/posts")
}
