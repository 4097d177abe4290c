package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/swatch/internal/build"
	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/config"
	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/logging"
	"github.com/conneroisu/swatch/internal/registry"
	"github.com/conneroisu/swatch/internal/renderer"
	"github.com/conneroisu/swatch/internal/scanner"
	"github.com/conneroisu/swatch/internal/types"
)

// app wires the library, the map syncer and the site builder for one
// command invocation.
type app struct {
	cfg    *config.Config
	root   string
	logger logging.Logger

	registry *registry.ComponentRegistry
	scanner  *scanner.ComponentScanner
	syncer   *componentmap.Syncer
}

func (o *rootOptions) newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadFrom(o.v)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to load configuration")
	}

	logger, err := o.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	root := "."
	if used := o.v.ConfigFileUsed(); used != "" {
		root = filepath.Dir(used)
		logger.Debug(cmd.Context(), "Using config file", "file", used)
	}

	a := &app{
		cfg:      cfg,
		root:     root,
		logger:   logger,
		registry: registry.NewComponentRegistry(),
	}
	a.scanner = scanner.NewComponentScanner(a.registry, scanner.Options{
		Root:    a.path(cfg.Components.Path),
		Ext:     cfg.Components.Ext,
		Exclude: cfg.Components.Exclude,
	}, logger)
	a.syncer = componentmap.NewSyncer(a.path(cfg.Map.File), logger)

	return a, nil
}

// path resolves a configured path against the project root
func (a *app) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

// load scans the components directory and writes the component map for the
// tree it published.
func (a *app) load(ctx context.Context) (types.TreeEvent, componentmap.Map, bool, error) {
	event, err := a.scanner.ScanDirectory(ctx)
	if err != nil {
		return types.TreeEvent{}, nil, false, err
	}
	m, written := a.syncer.Sync(ctx, event.Components)
	return event, m, written, nil
}

// newEngine creates a template engine over the components directory. The
// engine reads the map file when it reached the disk and uses m otherwise.
func (a *app) newEngine(m componentmap.Map, written bool, extraPaths ...string) (*renderer.Engine, error) {
	paths := make([]string, 0, len(a.cfg.Templates.Paths)+len(extraPaths))
	for _, p := range a.cfg.Templates.Paths {
		paths = append(paths, a.path(p))
	}
	paths = append(paths, extraPaths...)

	opts := []renderer.Option{
		renderer.WithComponentsDir(a.scanner.Root()),
		renderer.WithTemplatePaths(paths...),
		renderer.WithTrimBlocks(a.cfg.Templates.TrimBlocks),
		renderer.WithLStripBlocks(a.cfg.Templates.LStripBlocks),
		renderer.WithGlobals(map[string]any{
			"project": map[string]any{"title": a.cfg.Project.Title},
		}),
		renderer.WithLogger(a.logger),
	}
	if written {
		opts = append(opts, renderer.WithComponentMap(a.syncer.File()))
	} else {
		opts = append(opts, renderer.WithMap(m))
	}

	return renderer.NewEngine(opts...)
}

func (a *app) siteOptions() build.SiteOptions {
	return build.SiteOptions{
		Pages:  a.path(a.cfg.Site.Pages),
		Ext:    a.cfg.Site.Ext,
		Output: a.path(a.cfg.Site.Output),
		Minify: a.cfg.Site.Minify,
		Assets: build.Passthrough{
			Root:     a.path(a.cfg.Assets.Path),
			Patterns: a.cfg.Assets.Patterns,
		},
		AssetsOutput: a.cfg.Assets.Output,
	}
}

// buildSite renders every page with a fresh engine, so the latest map is
// the one page templates resolve against.
func (a *app) buildSite(ctx context.Context, m componentmap.Map, written bool) (*build.SiteReport, error) {
	opts := a.siteOptions()

	engine, err := a.newEngine(m, written, opts.Pages)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "failed to create template engine")
	}

	return build.NewSiteBuilder(opts, engine, a.logger).Build(ctx)
}
