// Package mapper holds the per-endpoint transforms from raw API items to
// display items.
package mapper

import "fmt"

// Func transforms one raw payload item into a display item. Funcs must be
// pure; the engine calls them once per item in payload order.
type Func func(raw map[string]any) (any, error)

// Registry maps a logical endpoint name to its transform. It is injected at
// construction; the engine never inspects payload shape itself.
type Registry map[string]Func

// ForEndpoint returns the transform for an endpoint. A missing entry is a
// caller configuration defect, so it fails loudly rather than returning an
// error for the engine to swallow.
func (r Registry) ForEndpoint(name string) Func {
	fn, ok := r[name]
	if !ok {
		panic(fmt.Sprintf("mapper: no transform registered for endpoint %q", name))
	}
	return fn
}
