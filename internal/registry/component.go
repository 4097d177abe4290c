// Package registry holds the current component tree and publishes it to
// subscribers. Every change replaces the whole tree and is broadcast as a
// single TreeEvent carrying the flattened component list, so consumers such
// as the component map writer never share mutable state with the registry.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/swatch/internal/types"
)

// watcherBuffer is the capacity of each subscriber channel
const watcherBuffer = 16

// ComponentRegistry manages the discovered component tree
type ComponentRegistry struct {
	components []types.Component
	index      map[string]location
	loaded     bool
	dropped    int
	mutex      sync.RWMutex
	watchers   []chan types.TreeEvent
}

// location points at a component, and at one of its variants when variant >= 0
type location struct {
	component int
	variant   int
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		index:    make(map[string]location),
		watchers: make([]chan types.TreeEvent, 0),
	}
}

// Replace swaps in a new component tree and notifies watchers. The first
// call publishes EventTypeLoaded, every later call EventTypeUpdated.
func (r *ComponentRegistry) Replace(components []types.Component) types.TreeEvent {
	tree := make([]types.Component, len(components))
	copy(tree, components)
	sort.SliceStable(tree, func(i, j int) bool {
		return tree[i].RelViewPath < tree[j].RelViewPath
	})

	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := types.EventTypeUpdated
	if !r.loaded {
		eventType = types.EventTypeLoaded
		r.loaded = true
	}

	r.components = tree
	r.index = buildIndex(tree)

	event := types.TreeEvent{
		Type:       eventType,
		Components: snapshot(tree),
		Timestamp:  time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
			continue
		default:
		}
		// Full: discard the oldest event so the latest tree always arrives
		select {
		case <-watcher:
			r.dropped++
		default:
		}
		select {
		case watcher <- event:
		default:
			r.dropped++
		}
	}

	return event
}

func buildIndex(tree []types.Component) map[string]location {
	index := make(map[string]location)
	for i, component := range tree {
		index[component.Handle] = location{component: i, variant: -1}
		for j, variant := range component.Variants {
			index[variant.Handle] = location{component: i, variant: j}
		}
	}
	return index
}

func snapshot(tree []types.Component) []types.Component {
	out := make([]types.Component, len(tree))
	copy(out, tree)
	return out
}

// Get retrieves a component by handle, with or without the "@" prefix. When
// the handle names a variant, the variant is returned alongside its parent.
func (r *ComponentRegistry) Get(handle string) (*types.Component, *types.Variant, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	loc, exists := r.index[strings.TrimPrefix(handle, "@")]
	if !exists {
		return nil, nil, false
	}

	component := r.components[loc.component]
	if loc.variant < 0 {
		return &component, nil, true
	}
	variant := component.Variants[loc.variant]
	return &component, &variant, true
}

// GetAll returns the component tree in relative path order
func (r *ComponentRegistry) GetAll() []types.Component {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return snapshot(r.components)
}

// Loaded reports whether a tree has been published yet
func (r *ComponentRegistry) Loaded() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaded
}

// Dropped returns how many queued events were discarded to make room for a
// newer one
func (r *ComponentRegistry) Dropped() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.dropped
}

// Watch returns a channel that receives tree events
func (r *ComponentRegistry) Watch() <-chan types.TreeEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan types.TreeEvent, watcherBuffer)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan types.TreeEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components, variants excluded
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}
