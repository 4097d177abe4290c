package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeContext(t *testing.T) {
	base := map[string]any{"label": "Go", "size": "md", "attrs": map[string]any{"id": "a"}}
	overlay := map[string]any{"label": "Stop", "attrs": map[string]any{"class": "x"}}

	merged := MergeContext(base, overlay)

	assert.Equal(t, map[string]any{
		"label": "Stop",
		"size":  "md",
		"attrs": map[string]any{"class": "x"},
	}, merged)
	assert.Equal(t, "Go", base["label"])
	assert.Len(t, overlay, 2)
}

func TestMergeContextNilInputs(t *testing.T) {
	assert.Empty(t, MergeContext(nil, nil))
	assert.Equal(t, map[string]any{"a": 1}, MergeContext(nil, map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": 1}, MergeContext(map[string]any{"a": 1}, nil))
}

func TestComponentVariantLookup(t *testing.T) {
	c := Component{Variants: []Variant{{Name: "default"}, {Name: "primary"}}}

	v, ok := c.Variant("primary")
	assert.True(t, ok)
	assert.Equal(t, "primary", v.Name)

	_, ok = c.Variant("ghost")
	assert.False(t, ok)
}
