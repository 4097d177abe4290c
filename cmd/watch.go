package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/types"
	"github.com/conneroisu/swatch/internal/watcher"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Build the site and rebuild it on every change",
		Long: `Build the site, then watch the components, pages and assets directories.

A change to a component view, config file or README reloads the library,
which rewrites the component map and rebuilds the site. A change to a page
or asset rebuilds the site with the current map.

Examples:
  swatch watch
  swatch watch --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			return newSiteWatcher(a, cmd.OutOrStdout()).run(ctx)
		},
	}
}

// siteWatcher keeps the component map and the built site in step with the
// files on disk.
type siteWatcher struct {
	app  *app
	out  io.Writer
	errs *errors.ErrorHandler

	mu      sync.Mutex
	m       componentmap.Map
	written bool
}

func newSiteWatcher(a *app, out io.Writer) *siteWatcher {
	return &siteWatcher{app: a, out: out, errs: errors.NewErrorHandler(a.logger)}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (w *siteWatcher) run(ctx context.Context) error {
	a := w.app

	events := a.registry.Watch()
	defer a.registry.UnWatch(events)

	a.syncer.AfterSync = func(ctx context.Context, _ types.EventType, m componentmap.Map, written bool) {
		w.mu.Lock()
		w.m, w.written = m, written
		w.mu.Unlock()
		w.rebuild(ctx)
	}

	syncDone := make(chan error, 1)
	go func() {
		syncDone <- a.syncer.Run(ctx, events)
	}()

	fw, err := watcher.NewFileWatcher(a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	site := a.siteOptions()
	components := absPath(a.scanner.Root())

	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.Not(watcher.GlobFilter(components, a.cfg.Components.Exclude...)))
	fw.AddFilter(watcher.AnyOf(
		watcher.ExtensionFilter(a.cfg.Components.Ext, site.Ext, ".yml", ".yaml", ".json", ".md"),
		site.Assets.Matches,
	))
	fw.AddHandler(w.handleChanges)

	for _, dir := range []string{components, absPath(site.Pages), absPath(site.Assets.Root)} {
		if err := fw.AddRecursive(dir); err != nil {
			a.logger.Warn(ctx, err, "Directory not watched", "path", dir)
		}
	}
	for _, dir := range fw.WatchList() {
		a.logger.Debug(ctx, "Watching", "path", dir)
	}

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if _, err := a.scanner.ScanDirectory(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w.out, "Watching for changes... (Press Ctrl+C to stop)")

	<-ctx.Done()
	<-syncDone
	return nil
}

// handleChanges reloads the library for component changes and rebuilds the
// site for everything else.
func (w *siteWatcher) handleChanges(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		if w.isComponentFile(event.Path) {
			if _, err := w.app.scanner.ScanDirectory(ctx); err != nil {
				w.errs.Handle(ctx, err)
			}
			return nil
		}
	}
	w.rebuild(ctx)
	return nil
}

// isComponentFile reports whether path is a view, config or README inside
// the components directory.
func (w *siteWatcher) isComponentFile(path string) bool {
	rel, err := filepath.Rel(absPath(w.app.scanner.Root()), absPath(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	base := filepath.Base(path)
	return filepath.Ext(base) == w.app.cfg.Components.Ext ||
		strings.Contains(base, ".config.") ||
		base == "README.md"
}

func (w *siteWatcher) rebuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	report, err := w.app.buildSite(ctx, w.m, w.written)
	if err != nil {
		w.errs.Handle(ctx, err)
		return
	}
	fmt.Fprintf(w.out, "Rebuilt %d pages and %d assets\n", len(report.Pages), len(report.Assets))
}
