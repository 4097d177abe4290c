package renderer

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/logging"
)

// ContextKey names the variable that holds the whole render context, so keys
// that are not identifiers stay reachable as {{ ctx["aria-label"] }}.
const ContextKey = "ctx"

// identifierKey matches the context keys pongo2 accepts at the top level
var identifierKey = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Option configures an Engine
type Option func(*engineConfig)

type engineConfig struct {
	root         string
	paths        []string
	trimBlocks   bool
	lstripBlocks bool
	mapFile      string
	entries      componentmap.Map
	globals      map[string]any
	debug        bool
	logger       logging.Logger
}

// WithComponentsDir sets the directory component view paths are relative to.
// It is searched first when a template is loaded by name.
func WithComponentsDir(dir string) Option {
	return func(c *engineConfig) { c.root = dir }
}

// WithTemplatePaths adds directories searched after the components
// directory. Missing directories are skipped.
func WithTemplatePaths(paths ...string) Option {
	return func(c *engineConfig) { c.paths = append(c.paths, paths...) }
}

func WithTrimBlocks(enabled bool) Option {
	return func(c *engineConfig) { c.trimBlocks = enabled }
}

func WithLStripBlocks(enabled bool) Option {
	return func(c *engineConfig) { c.lstripBlocks = enabled }
}

// WithComponentMap loads the component map from file when the engine is
// created.
func WithComponentMap(file string) Option {
	return func(c *engineConfig) { c.mapFile = file }
}

// WithMap uses m as the component map. It takes precedence over
// WithComponentMap.
func WithMap(m componentmap.Map) Option {
	return func(c *engineConfig) { c.entries = m }
}

// WithGlobals exposes values to every template
func WithGlobals(globals map[string]any) Option {
	return func(c *engineConfig) { c.globals = globals }
}

// WithDebug recompiles templates on every render
func WithDebug(enabled bool) Option {
	return func(c *engineConfig) { c.debug = enabled }
}

func WithLogger(logger logging.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// Engine renders pongo2 templates and resolves the render tag against a
// component map read once at construction.
type Engine struct {
	set      *pongo2.TemplateSet
	resolver *Resolver
	debug    bool
	logger   logging.Logger

	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

// NewEngine creates an engine. The components directory must exist.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{trimBlocks: true, lstripBlocks: true}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNopLogger()
	}
	logger := cfg.logger.WithComponent("renderer")

	if cfg.root == "" {
		return nil, fmt.Errorf("renderer: components directory is required")
	}
	if err := registerTag(); err != nil {
		return nil, fmt.Errorf("renderer: register %s tag: %w", TagName, err)
	}

	rootLoader, err := pongo2.NewLocalFileSystemLoader(cfg.root)
	if err != nil {
		return nil, fmt.Errorf("renderer: components directory: %w", err)
	}
	loaders := []pongo2.TemplateLoader{literalLoader{rootLoader}}
	for _, dir := range cfg.paths {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Debug(context.Background(), "Template path skipped", "path", dir)
			continue
		}
		loader, err := pongo2.NewLocalFileSystemLoader(dir)
		if err != nil {
			return nil, fmt.Errorf("renderer: template path %s: %w", dir, err)
		}
		loaders = append(loaders, literalLoader{loader})
	}

	entries := cfg.entries
	if entries == nil && cfg.mapFile != "" {
		if entries, err = componentmap.Load(cfg.mapFile); err != nil {
			return nil, err
		}
	}

	set := pongo2.NewSet("swatch", loaders...)
	set.Options.TrimBlocks = cfg.trimBlocks
	set.Options.LStripBlocks = cfg.lstripBlocks
	set.Globals.Update(cfg.globals)

	e := &Engine{
		set:    set,
		debug:  cfg.debug,
		logger: logger,
		cache:  make(map[string]*pongo2.Template),
	}
	e.resolver = NewResolver(entries, e)
	set.Globals[resolverKey] = e.resolver

	logger.Debug(context.Background(), "Template engine ready",
		"components", cfg.root,
		"loaders", len(loaders),
		"handles", len(e.resolver.entries))
	return e, nil
}

// Resolver returns the resolver bound to this engine's component map
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// Resolve renders a component by handle
func (e *Engine) Resolve(handle string, data map[string]any, partial bool) (Markup, error) {
	return e.resolver.Resolve(handle, data, partial)
}

// RenderFile renders the template at path. Relative paths are looked up in
// the components directory first, then in the template paths.
func (e *Engine) RenderFile(path string, data map[string]any) (string, error) {
	tpl, err := e.load(path)
	if err != nil {
		return "", templateFailure(err)
	}
	out, err := tpl.Execute(templateContext(data))
	if err != nil {
		return "", templateFailure(err)
	}
	return out, nil
}

// load compiles path once. pongo2's own cache keys on the first loader only,
// which misses templates that live in a later template path.
func (e *Engine) load(path string) (*pongo2.Template, error) {
	if e.debug {
		return e.set.FromFile(path)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tpl, ok := e.cache[path]; ok {
		return tpl, nil
	}
	tpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, err
	}
	e.cache[path] = tpl
	return tpl, nil
}

// RenderString renders template source with data
func (e *Engine) RenderString(src string, data map[string]any) (string, error) {
	tpl, err := e.set.FromString(rewriteObjectLiterals(src))
	if err != nil {
		return "", templateFailure(err)
	}
	out, err := tpl.Execute(templateContext(data))
	if err != nil {
		return "", templateFailure(err)
	}
	return out, nil
}

// templateContext builds the pongo2 context for data. Keys that are not
// identifiers are only reachable through ContextKey. A caller key named
// ContextKey wins over the whole-context variable.
func templateContext(data map[string]any) pongo2.Context {
	tc := make(pongo2.Context, len(data)+1)
	for k, v := range data {
		if identifierKey.MatchString(k) {
			tc[k] = v
		}
	}
	if _, ok := tc[ContextKey]; !ok {
		if data == nil {
			data = map[string]any{}
		}
		tc[ContextKey] = data
	}
	return tc
}

// literalLoader rewrites object literals in render tags of every template it
// loads.
type literalLoader struct {
	pongo2.TemplateLoader
}

func (l literalLoader) Get(path string) (io.Reader, error) {
	r, err := l.TemplateLoader.Get(path)
	if err != nil {
		return nil, err
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(rewriteObjectLiterals(string(src))), nil
}

// templateError keeps pongo2's positioned message and exposes the original
// cause to errors.Is and errors.As.
type templateError struct {
	msg   string
	cause error
}

func (e *templateError) Error() string { return e.msg }

func (e *templateError) Unwrap() error { return e.cause }

func templateFailure(err error) error {
	perr, ok := err.(*pongo2.Error)
	if !ok || perr.OrigError == nil {
		return err
	}
	cause := perr.OrigError
	for {
		inner, ok := cause.(*pongo2.Error)
		if !ok || inner.OrigError == nil {
			break
		}
		cause = inner.OrigError
	}
	return &templateError{msg: perr.Error(), cause: cause}
}
