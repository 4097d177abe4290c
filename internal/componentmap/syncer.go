package componentmap

import (
	"context"

	"github.com/conneroisu/swatch/internal/logging"
	"github.com/conneroisu/swatch/internal/types"
)

// Syncer keeps the map file in step with the component tree. Writing is best
// effort: failures are logged and never stop the caller.
type Syncer struct {
	file   string
	logger logging.Logger

	// AfterSync, when set, runs after every sync attempt with the built map
	// and whether it reached the disk.
	AfterSync func(ctx context.Context, event types.EventType, m Map, written bool)
}

// NewSyncer creates a syncer writing to file.
func NewSyncer(file string, logger logging.Logger) *Syncer {
	if file == "" {
		file = DefaultFile
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Syncer{
		file:   file,
		logger: logger.WithComponent("componentmap"),
	}
}

// File returns the path the syncer writes to
func (s *Syncer) File() string {
	return s.file
}

// Sync builds the map for components and writes it. It reports whether the
// file was written.
func (s *Syncer) Sync(ctx context.Context, components []types.Component) (Map, bool) {
	return s.sync(ctx, "", components)
}

func (s *Syncer) sync(ctx context.Context, event types.EventType, components []types.Component) (Map, bool) {
	m, collisions := Build(components)
	for _, c := range collisions {
		s.logger.Warn(ctx, nil, "Duplicate component handle, keeping the later entry",
			"handle", c.Handle,
			"previous_path", c.Previous.Path,
			"path", c.Replacement.Path)
	}

	written := true
	if err := Write(s.file, m); err != nil {
		s.logger.Error(ctx, err, "Failed to write component map", "file", s.file)
		written = false
	} else {
		s.logger.Info(ctx, "Component map written",
			"file", s.file,
			"entries", len(m),
			"event", string(event))
	}

	if s.AfterSync != nil {
		s.AfterSync(ctx, event, m, written)
	}
	return m, written
}

// Run syncs once per tree event until ctx is cancelled or events is closed.
func (s *Syncer) Run(ctx context.Context, events <-chan types.TreeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.sync(ctx, event.Type, event.Components)
		}
	}
}
