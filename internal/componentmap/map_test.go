package componentmap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/types"
)

func buttonComponent() types.Component {
	return types.Component{
		Handle:      "button",
		RelViewPath: "button/button.html",
		Context:     map[string]any{"label": "Go"},
		Variants: []types.Variant{
			{Handle: "button--default", RelViewPath: "button/button.html", Context: map[string]any{"label": "Go"}, IsDefault: true},
			{Handle: "button--danger", RelViewPath: "button/button--danger.html", Context: map[string]any{"label": "Stop"}},
		},
	}
}

func TestBuildFlattensComponentsAndVariants(t *testing.T) {
	m, collisions := Build([]types.Component{
		buttonComponent(),
		{Handle: "card", RelViewPath: "card/card.html"},
	})

	assert.Empty(t, collisions)

	want := Map{
		"@button":          {Path: "button/button.html", Ctx: map[string]any{"label": "Go"}},
		"@button--default": {Path: "button/button.html", Ctx: map[string]any{"label": "Go"}},
		"@button--danger":  {Path: "button/button--danger.html", Ctx: map[string]any{"label": "Stop"}},
		"@card":            {Path: "card/card.html", Ctx: map[string]any{}},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("component map mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"@button", "@button--danger", "@button--default", "@card"}, m.Handles())
}

func TestBuildDuplicateHandleLastWriteWins(t *testing.T) {
	first := types.Component{Handle: "button", RelViewPath: "legacy/button.html", Context: map[string]any{"v": 1}}
	second := types.Component{Handle: "button", RelViewPath: "modern/button.html", Context: map[string]any{"v": 2}}

	m, collisions := Build([]types.Component{first, second})

	require.Len(t, collisions, 1)
	assert.Equal(t, "@button", collisions[0].Handle)
	assert.Equal(t, "legacy/button.html", collisions[0].Previous.Path)
	assert.Equal(t, "modern/button.html", collisions[0].Replacement.Path)
	assert.Equal(t, "modern/button.html", m["@button"].Path)
	assert.Len(t, m, 1)
}

func TestBuildVariantShadowingComponentCollides(t *testing.T) {
	// A component literally named "button--primary" and the primary variant of
	// "button" share a handle; the one visited later is kept.
	m, collisions := Build([]types.Component{
		{
			Handle:      "button",
			RelViewPath: "button.html",
			Variants:    []types.Variant{{Handle: "button--primary", RelViewPath: "button.html"}},
		},
		{Handle: "button--primary", RelViewPath: "zz/button--primary.html"},
	})

	require.Len(t, collisions, 1)
	assert.Equal(t, "zz/button--primary.html", m["@button--primary"].Path)
}

func TestWriteAndLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), DefaultFile)
	m, _ := Build([]types.Component{buttonComponent()})

	require.NoError(t, Write(file, m))

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "button/button.html", decoded["@button"]["path"])
	assert.Equal(t, map[string]any{"label": "Go"}, decoded["@button"]["ctx"])

	loaded, err := Load(file)
	require.NoError(t, err)
	if diff := cmp.Diff(m, loaded); diff != "" {
		t.Fatalf("loaded map mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(file))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteReplacesPreviousContent(t *testing.T) {
	file := filepath.Join(t.TempDir(), DefaultFile)

	before, _ := Build([]types.Component{buttonComponent()})
	require.NoError(t, Write(file, before))

	after, _ := Build([]types.Component{{Handle: "badge", RelViewPath: "badge.html"}})
	require.NoError(t, Write(file, after))

	loaded, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"@badge"}, loaded.Handles())
}

func TestWriteEmptyMap(t *testing.T) {
	file := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, Write(file, nil))

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestWriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing-dir", DefaultFile)

	err := Write(file, Map{})
	require.Error(t, err)

	var se *errors.SwatchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.ErrorTypeIO, se.Type)
	assert.Equal(t, file, se.FilePath)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoadFillsMissingContext(t *testing.T) {
	file := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(file, []byte(`{"@icon": {"path": "icon.html"}}`), 0o644))

	m, err := Load(file)
	require.NoError(t, err)
	assert.NotNil(t, m["@icon"].Ctx)
}
