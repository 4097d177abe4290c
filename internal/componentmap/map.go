// Package componentmap builds and persists the flat component map consumed by
// the render tag. The map is keyed by "@" + handle and holds, for every
// component and every variant, the view path and default render context:
//
//	{"@button": {"path": "button/button.html", "ctx": {"label": "Go"}}}
//
// The map is rebuilt from scratch on every trigger and the file is always
// fully replaced.
package componentmap

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/types"
)

// DefaultFile is the map file name, resolved against the working directory
const DefaultFile = "components.json"

// HandlePrefix marks map keys as component handles
const HandlePrefix = "@"

// Entry locates a renderable template and its default context.
type Entry struct {
	Path string         `json:"path"`
	Ctx  map[string]any `json:"ctx"`
}

// Map is keyed by "@" + handle.
type Map map[string]Entry

// Collision records a handle written twice during one build. The later entry
// is the one kept.
type Collision struct {
	Handle      string
	Previous    Entry
	Replacement Entry
}

// Key returns the map key for a bare handle.
func Key(handle string) string {
	return HandlePrefix + handle
}

// Handles returns the map keys in sorted order.
func (m Map) Handles() []string {
	handles := make([]string, 0, len(m))
	for handle := range m {
		handles = append(handles, handle)
	}
	sort.Strings(handles)
	return handles
}

// Build flattens components and their variants into a Map. Entries are
// written in slice order, each component before its variants, and a later
// entry with the same handle replaces the earlier one; every replacement is
// returned as a Collision.
func Build(components []types.Component) (Map, []Collision) {
	m := make(Map)
	var collisions []Collision

	put := func(handle, path string, ctx map[string]any) {
		key := Key(handle)
		entry := Entry{Path: path, Ctx: ctx}
		if entry.Ctx == nil {
			entry.Ctx = map[string]any{}
		}
		if previous, exists := m[key]; exists {
			collisions = append(collisions, Collision{Handle: key, Previous: previous, Replacement: entry})
		}
		m[key] = entry
	}

	for _, component := range components {
		put(component.Handle, component.RelViewPath, component.Context)
		for _, variant := range component.Variants {
			put(variant.Handle, variant.RelViewPath, variant.Context)
		}
	}

	return m, collisions
}

// Write serializes m to path, replacing any existing file. The data goes to
// a temporary file in the same directory first so readers never observe a
// partial map.
func Write(path string, m Map) error {
	if m == nil {
		m = Map{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeMapWrite, "failed to encode component map", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".components-*.json")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeMapWrite, "failed to create component map", err).WithFile(path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeMapWrite, "failed to write component map", err).WithFile(path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeMapWrite, "failed to write component map", err).WithFile(path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeMapWrite, "failed to write component map", err).WithFile(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeMapWrite, "failed to replace component map", err).WithFile(path)
	}
	return nil
}

// Load reads a map written by Write.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeMapRead, "failed to read component map", err).WithFile(path)
	}

	m := make(Map)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeMapRead, "failed to decode component map", err).WithFile(path)
	}
	for key, entry := range m {
		if entry.Ctx == nil {
			entry.Ctx = map[string]any{}
			m[key] = entry
		}
	}
	return m, nil
}
