package renderer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/testutils"
)

func testMap() componentmap.Map {
	return componentmap.Map{
		"@button": {Path: "button/button.html", Ctx: map[string]any{"label": "Go"}},
		"@card": {Path: "card/card.html", Ctx: map[string]any{
			"title":  "Card",
			"action": map[string]any{},
		}},
		"@broken": {Path: "broken.html", Ctx: map[string]any{}},
		"@chip": {Path: "chip.html", Ctx: map[string]any{
			"label":      "Go",
			"aria-label": "Go button",
		}},
	}
}

// newTestEngine lays out a small component library and returns an engine
// over it together with the project root.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	components := filepath.Join(root, "components")
	testutils.WriteFile(t, filepath.Join(components, "button", "button.html"), `<button class="btn">{{ label }}</button>`)
	testutils.WriteFile(t, filepath.Join(components, "card", "card.html"),
		`<div class="card"><h2>{{ title }}</h2>{% render "@button", action, true %}</div>`)
	testutils.WriteFile(t, filepath.Join(components, "broken.html"), `<p>{% render "@missing" %}</p>`)
	testutils.WriteFile(t, filepath.Join(components, "chip.html"),
		`<span aria-label="{{ ctx["aria-label"] }}" data-id="{{ ctx["data-id"] }}">{{ label }}</span>`)
	testutils.WriteFile(t, filepath.Join(root, "templates", "layout.html"), `<main>{% block content %}{% endblock %}</main>`)

	opts = append([]Option{
		WithComponentsDir(components),
		WithTemplatePaths(filepath.Join(root, "templates"), filepath.Join(root, "does-not-exist")),
		WithMap(testMap()),
	}, opts...)
	engine, err := NewEngine(opts...)
	require.NoError(t, err)
	return engine, root
}

func TestRenderTag(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name string
		src  string
		data map[string]any
		want string
	}{
		{
			name: "partial with empty data uses stored context",
			src:  `{% render "@button", data, true %}`,
			data: map[string]any{"data": map[string]any{}},
			want: `<button class="btn">Go</button>`,
		},
		{
			name: "partial data overrides stored context",
			src:  `{% render "@button", data, true %}`,
			data: map[string]any{"data": map[string]any{"label": "Stop"}},
			want: `<button class="btn">Stop</button>`,
		},
		{
			name: "no data and no partial renders bare template",
			src:  `{% render "@button" %}`,
			want: `<button class="btn"></button>`,
		},
		{
			name: "full render uses only the data",
			src:  `{% render "@button", data %}`,
			data: map[string]any{"data": map[string]string{"label": "Only"}},
			want: `<button class="btn">Only</button>`,
		},
		{
			name: "partial flag from a variable",
			src:  `{% render "@button", data, merge %}`,
			data: map[string]any{"data": map[string]any{}, "merge": true},
			want: `<button class="btn">Go</button>`,
		},
		{
			name: "handle from a variable",
			src:  `{% render name %}`,
			data: map[string]any{"name": "@button"},
			want: `<button class="btn"></button>`,
		},
		{
			name: "object literal with partial",
			src:  `{% render "@button", { "label": "Save" }, true %}`,
			want: `<button class="btn">Save</button>`,
		},
		{
			name: "single quoted handle and object literal",
			src:  `{% render '@button', {"label": "Stop"}, true %}`,
			want: `<button class="btn">Stop</button>`,
		},
		{
			name: "object literal with bare keys and variables",
			src:  `{% render "@button", {label: name|upper} %}`,
			data: map[string]any{"name": "hi"},
			want: `<button class="btn">HI</button>`,
		},
		{
			name: "empty object literal with partial",
			src:  `{% render "@button", {}, true %}`,
			want: `<button class="btn">Go</button>`,
		},
		{
			name: "braces inside strings are kept",
			src:  `{% render "@button", {"label": "{x}",} %}`,
			want: `<button class="btn">{x}</button>`,
		},
		{
			name: "values inside components are escaped once",
			src:  `{% render "@button", data %}`,
			data: map[string]any{"data": map[string]any{"label": "<b>x</b>"}},
			want: `<button class="btn">&lt;b&gt;x&lt;/b&gt;</button>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := engine.RenderString(tt.src, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderTagNestedComponents(t *testing.T) {
	engine, _ := newTestEngine(t)

	out, err := engine.RenderString(`{% render "@card", data, true %}`, map[string]any{"data": map[string]any{}})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "Card", doc.Find(".card h2").Text())
	assert.Equal(t, "Go", doc.Find(".card button.btn").Text())
}

func TestRenderTagNestedObjectLiteral(t *testing.T) {
	engine, _ := newTestEngine(t)

	out, err := engine.RenderString(`{% render "@card", {"title": "Deal", "action": {"label": "Buy"}}, true %}`, nil)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "Deal", doc.Find(".card h2").Text())
	assert.Equal(t, "Buy", doc.Find(".card button.btn").Text())
}

func TestNonIdentifierContextKeys(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("stored context with partial", func(t *testing.T) {
		out, err := engine.Resolve("@chip", nil, true)
		require.NoError(t, err)
		assert.Equal(t, `<span aria-label="Go button" data-id="">Go</span>`, string(out))
	})

	t.Run("caller data without partial", func(t *testing.T) {
		out, err := engine.Resolve("@chip", map[string]any{"label": "Stop", "data-id": "x"}, false)
		require.NoError(t, err)
		assert.Equal(t, `<span aria-label="" data-id="x">Stop</span>`, string(out))
	})

	t.Run("page data", func(t *testing.T) {
		out, err := engine.RenderString(`{{ ctx["data-id"] }}/{{ title }}`, map[string]any{"data-id": "7", "title": "Home"})
		require.NoError(t, err)
		assert.Equal(t, "7/Home", out)
	})

	t.Run("caller ctx key wins", func(t *testing.T) {
		out, err := engine.RenderString(`{{ ctx }}`, map[string]any{"ctx": "mine"})
		require.NoError(t, err)
		assert.Equal(t, "mine", out)
	})
}

func TestRewriteObjectLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"other tags untouched", `{% if a %}{x}{% endif %}`, `{% if a %}{x}{% endif %}`},
		{"render literal", `{% render "@a", {"k": 1} %}`, `{% render "@a", ["k": 1] %}`},
		{"trim markers", `{%- render "@a", {"k": {"j": 2}} -%}`, `{%- render "@a", ["k": ["j": 2]] -%}`},
		{"quoted braces", `{% render "@a", {"k": "{\"}"} %}`, `{% render "@a", ["k": "{\"}"] %}`},
		{"text after tag", `{% render "@a", {} %} {b}`, `{% render "@a", [] %} {b}`},
		{"verbatim", `{% verbatim %}{% render "@a", {} %}{% endverbatim %}`, `{% verbatim %}{% render "@a", {} %}{% endverbatim %}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rewriteObjectLiterals(tt.src))
		})
	}
}

func TestRenderTagMissingHandle(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RenderString(`{% render "@missing", data %}`, map[string]any{"data": map[string]any{}})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "@missing")
}

func TestRenderTagNestedFailure(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Resolve("@broken", nil, false)
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.True(t, errors.IsNotFound(err), "cause of the nested failure is kept")
	assert.Contains(t, err.Error(), "@broken")
}

func TestRenderTagRejectsNonMapData(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RenderString(`{% render "@button", data %}`, map[string]any{"data": "oops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data must be a map")
}

func TestRenderTagMalformed(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, src := range []string{
		`{% render %}`,
		`{% render "@button" "extra" %}`,
		`{% render "@button", data, true, false %}`,
		`{% render "@button", {"label" "x"} %}`,
		`{% render "@button", {"label": } %}`,
		`{% render "@button", {"label": "x" %}`,
		`{% render "@button", {1: "x"} %}`,
	} {
		_, err := engine.RenderString(src, nil)
		assert.Error(t, err, src)
	}
}

func TestRenderStringExtendsFromTemplatePath(t *testing.T) {
	engine, _ := newTestEngine(t)

	out, err := engine.RenderString(
		`{% extends "layout.html" %}{% block content %}{% render "@button", data, true %}{% endblock %}`,
		map[string]any{"data": map[string]any{}},
	)
	require.NoError(t, err)
	assert.Equal(t, `<main><button class="btn">Go</button></main>`, out)
}

func TestRenderFile(t *testing.T) {
	engine, root := newTestEngine(t)

	out, err := engine.RenderFile("button/button.html", map[string]any{"label": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, `<button class="btn">Hi</button>`, out)

	out, err = engine.RenderFile(filepath.Join(root, "components", "button", "button.html"), map[string]any{"label": "Abs"})
	require.NoError(t, err)
	assert.Equal(t, `<button class="btn">Abs</button>`, out)

	_, err = engine.RenderFile("nope.html", nil)
	assert.Error(t, err)
}

func TestRenderFileCachesCompiledTemplates(t *testing.T) {
	engine, root := newTestEngine(t)
	path := filepath.Join(root, "components", "button", "button.html")

	_, err := engine.RenderFile("button/button.html", nil)
	require.NoError(t, err)
	testutils.WriteFile(t, path, `<a>{{ label }}</a>`)

	out, err := engine.RenderFile("button/button.html", map[string]any{"label": "x"})
	require.NoError(t, err)
	assert.Equal(t, `<button class="btn">x</button>`, out)

	debug, debugRoot := newTestEngine(t, WithDebug(true))
	_, err = debug.RenderFile("button/button.html", nil)
	require.NoError(t, err)
	testutils.WriteFile(t, filepath.Join(debugRoot, "components", "button", "button.html"), `<a>{{ label }}</a>`)

	out, err = debug.RenderFile("button/button.html", map[string]any{"label": "x"})
	require.NoError(t, err)
	assert.Equal(t, `<a>x</a>`, out)
}

func TestTrimBlocks(t *testing.T) {
	src := "{% if true %}\nx{% endif %}"

	trimmed, _ := newTestEngine(t)
	out, err := trimmed.RenderString(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	raw, _ := newTestEngine(t, WithTrimBlocks(false), WithLStripBlocks(false))
	out, err = raw.RenderString(src, nil)
	require.NoError(t, err)
	assert.Equal(t, "\nx", out)
}

func TestGlobals(t *testing.T) {
	engine, _ := newTestEngine(t, WithGlobals(map[string]any{"site": "Library"}))

	out, err := engine.RenderString(`{{ site }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Library", out)
}

func TestEngineLoadsMapFileOnce(t *testing.T) {
	root := t.TempDir()
	components := filepath.Join(root, "components")
	testutils.WriteFile(t, filepath.Join(components, "button", "button.html"), `<button>{{ label }}</button>`)
	mapFile := filepath.Join(root, componentmap.DefaultFile)
	require.NoError(t, componentmap.Write(mapFile, componentmap.Map{
		"@button": {Path: "button/button.html", Ctx: map[string]any{"label": "Go"}},
	}))

	engine, err := NewEngine(WithComponentsDir(components), WithComponentMap(mapFile))
	require.NoError(t, err)

	require.NoError(t, componentmap.Write(mapFile, componentmap.Map{}))

	markup, err := engine.Resolve("@button", nil, true)
	require.NoError(t, err)
	assert.Equal(t, Markup("<button>Go</button>"), markup)
	assert.Equal(t, []string{"@button"}, engine.Resolver().Handles())
}

func TestNewEngineErrors(t *testing.T) {
	root := t.TempDir()

	_, err := NewEngine()
	assert.Error(t, err)

	_, err = NewEngine(WithComponentsDir(filepath.Join(root, "missing")))
	assert.Error(t, err)

	_, err = NewEngine(WithComponentsDir(root), WithComponentMap(filepath.Join(root, "missing.json")))
	assert.Error(t, err)
}

func TestRegisterTagIsIdempotent(t *testing.T) {
	require.NoError(t, registerTag())
	assert.NoError(t, registerTag(), "registration is idempotent")
}
