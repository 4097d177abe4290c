// Package types provides common type definitions used throughout swatch.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// Component is a discovered library component: a view template plus the
// metadata and default render context loaded from its config file.
type Component struct {
	// Handle is the bare identifier (e.g. "button"), without the "@" prefix
	Handle string
	// Name is the file name the handle was derived from, order prefix kept
	Name string
	// Title is a human readable label, from config or derived from the handle
	Title string
	// RelViewPath is the view path relative to the components root, slash separated
	RelViewPath string
	// Context is the default render context
	Context map[string]any
	// Variants always holds at least the default variant
	Variants []Variant
	// Notes is sanitized HTML rendered from a sibling README.md
	Notes string
	// Status is a free-form workflow label such as "wip" or "ready"
	Status string
	// Hidden components are still resolvable but omitted from listings
	Hidden bool
}

// Variant is a named alternate configuration of a component.
type Variant struct {
	// Handle is "<component>--<variant>"
	Handle string
	Name   string
	Title  string
	// RelViewPath is the variant's own view when one exists, otherwise the component's
	RelViewPath string
	// Context is the component context overlaid with the variant's own keys
	Context map[string]any
	// IsDefault marks the variant that represents the component itself
	IsDefault bool
}

// Variant returns the named variant of the component.
func (c *Component) Variant(name string) (*Variant, bool) {
	for i := range c.Variants {
		if c.Variants[i].Name == name {
			return &c.Variants[i], true
		}
	}
	return nil, false
}

// EventType represents the kind of component tree notification.
type EventType string

const (
	// EventTypeLoaded is published once the initial source has been loaded
	EventTypeLoaded EventType = "loaded"
	// EventTypeUpdated is published after the source changed and was rescanned
	EventTypeUpdated EventType = "updated"
)

// TreeEvent carries the complete, flattened component list after a load or
// change. Subscribers never need to reach back into the library.
type TreeEvent struct {
	// Type indicates why the tree was published
	Type EventType
	// Components is the full tree in stable order
	Components []Component
	// Timestamp records when the event occurred
	Timestamp time.Time
}
