// Package renderer resolves component handles to rendered markup.
//
// A Resolver looks a handle up in the component map, builds the effective
// render context and delegates to a TemplateRenderer. Engine is the pongo2
// backed TemplateRenderer: it loads the component map once at construction
// and registers the render tag, so templates can embed components with
//
//	{% render "@button" %}
//	{% render "@button", data %}
//	{% render "@button", data, true %}
//	{% render "@button", {"label": "Save", "icon": icon}, true %}
//
// where the optional third argument merges data over the component's
// default context instead of replacing it. Templates see each context key
// that is a plain identifier as a variable, and the whole context as ctx,
// so other keys read as {{ ctx["aria-label"] }}.
package renderer

import (
	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/types"
)

// TemplateRenderer renders a template file, relative to the components
// directory, with the given context.
type TemplateRenderer interface {
	RenderFile(path string, data map[string]any) (string, error)
}

// Markup is rendered HTML that must not be escaped again.
type Markup string

// Resolver maps handles to rendered components.
type Resolver struct {
	entries  componentmap.Map
	renderer TemplateRenderer
}

// NewResolver creates a resolver over m. The map is used as given and is
// never re-read.
func NewResolver(m componentmap.Map, r TemplateRenderer) *Resolver {
	if m == nil {
		m = componentmap.Map{}
	}
	return &Resolver{entries: m, renderer: r}
}

// Has reports whether handle is in the map
func (r *Resolver) Has(handle string) bool {
	_, ok := r.entries[handle]
	return ok
}

// Handles returns the known handles in sorted order
func (r *Resolver) Handles() []string {
	return r.entries.Handles()
}

// Resolve renders the component stored under handle. With partial unset the
// template sees exactly data; with partial set it sees the stored default
// context overlaid with data. A missing handle fails before any rendering.
func (r *Resolver) Resolve(handle string, data map[string]any, partial bool) (Markup, error) {
	entry, ok := r.entries[handle]
	if !ok {
		return "", errors.NewNotFoundError(handle)
	}

	var ctx map[string]any
	if partial {
		ctx = types.MergeContext(entry.Ctx, data)
	} else {
		ctx = types.MergeContext(nil, data)
	}

	out, err := r.renderer.RenderFile(entry.Path, ctx)
	if err != nil {
		return "", errors.NewRenderError(handle, err).WithFile(entry.Path)
	}
	return Markup(out), nil
}
