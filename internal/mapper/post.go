package mapper

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/openfolio/postfeed/internal/terms"
)

// Post is the display item produced by the default posts transform. Title
// and Excerpt are unwrapped from the API's rendered{} envelopes.
type Post struct {
	ID      int    `mapstructure:"id" json:"id"`
	Date    string `mapstructure:"date" json:"date"`
	Slug    string `mapstructure:"slug" json:"slug"`
	Link    string `mapstructure:"link" json:"link"`
	Title   string `mapstructure:"title" json:"title"`
	Excerpt string `mapstructure:"excerpt" json:"excerpt"`
}

// renderedHookFunc unwraps {"rendered": "..."} objects into plain strings
// while decoding.
func renderedHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		if t.Kind() != reflect.String || f.Kind() != reflect.Map {
			return data, nil
		}
		m, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}
		if rendered, ok := m["rendered"].(string); ok {
			return rendered, nil
		}
		return data, nil
	}
}

// PostFunc decodes a raw posts-endpoint item into a Post.
func PostFunc(raw map[string]any) (any, error) {
	var post Post
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       renderedHookFunc(),
		WeaklyTypedInput: true,
		Result:           &post,
	})
	if err != nil {
		return nil, fmt.Errorf("creating post decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding post: %w", err)
	}
	return post, nil
}

type rawTerm struct {
	ID   int    `mapstructure:"id"`
	Slug string `mapstructure:"slug"`
	Name string `mapstructure:"name"`
}

type rawTaxonomy struct {
	Slug  string    `mapstructure:"slug"`
	Name  string    `mapstructure:"name"`
	Terms []rawTerm `mapstructure:"terms"`
}

// TaxonomyFunc decodes a raw terms-endpoint item into a *terms.Taxonomy with
// every filter initially unchecked.
func TaxonomyFunc(raw map[string]any) (any, error) {
	var tax rawTaxonomy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &tax,
	})
	if err != nil {
		return nil, fmt.Errorf("creating taxonomy decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding taxonomy: %w", err)
	}

	out := &terms.Taxonomy{Slug: tax.Slug, Name: tax.Name}
	for _, tm := range tax.Terms {
		out.Filters = append(out.Filters, &terms.Filter{
			ID:       tm.ID,
			Slug:     tm.Slug,
			Name:     tm.Name,
			Taxonomy: tax.Slug,
		})
	}
	return out, nil
}

// Defaults returns the registry used by the CLI and MCP surfaces.
func Defaults(postsEndpoint, termsEndpoint string) Registry {
	return Registry{
		postsEndpoint: PostFunc,
		termsEndpoint: TaxonomyFunc,
	}
}
