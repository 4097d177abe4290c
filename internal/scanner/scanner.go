// Package scanner provides component discovery for the component library.
//
// The scanner walks the components directory, treats every file with the
// configured view extension as a component, and reads the optional
// <name>.config.{yml,yaml,json} file next to it for title, status, default
// context and variants. Files named <name>--<variant><ext> are variant views.
// A README.md inside a directory named after the component becomes its notes.
// Each successful scan replaces the registry tree, which broadcasts the new
// flattened list to subscribers.
package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/logging"
	"github.com/conneroisu/swatch/internal/registry"
	"github.com/conneroisu/swatch/internal/types"
)

// DefaultVariant is the name of the variant that stands for the component itself
const DefaultVariant = "default"

// configExtensions are tried in order; the first file found wins
var configExtensions = []string{".yml", ".yaml", ".json"}

// Options controls where and how components are discovered.
type Options struct {
	// Root is the components directory
	Root string
	// Ext is the view extension, including the dot
	Ext string
	// Exclude holds glob patterns matched against slash separated paths relative to Root
	Exclude []string
}

type componentConfig struct {
	Title    string          `yaml:"title" json:"title"`
	Status   string          `yaml:"status" json:"status"`
	Hidden   bool            `yaml:"hidden" json:"hidden"`
	Default  string          `yaml:"default" json:"default"`
	Context  map[string]any  `yaml:"context" json:"context"`
	Variants []variantConfig `yaml:"variants" json:"variants"`
}

type variantConfig struct {
	Name    string         `yaml:"name" json:"name"`
	Title   string         `yaml:"title" json:"title"`
	Context map[string]any `yaml:"context" json:"context"`
}

// ComponentScanner discovers components and publishes them to a registry.
type ComponentScanner struct {
	registry *registry.ComponentRegistry
	opts     Options
	notes    *notesRenderer
	errors   *errors.ErrorCollector
	logger   logging.Logger
}

// NewComponentScanner creates a scanner feeding reg.
func NewComponentScanner(reg *registry.ComponentRegistry, opts Options, logger logging.Logger) *ComponentScanner {
	if opts.Ext == "" {
		opts.Ext = ".html"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ComponentScanner{
		registry: reg,
		opts:     opts,
		notes:    newNotesRenderer(),
		errors:   errors.NewErrorCollector(),
		logger:   logger.WithComponent("scanner"),
	}
}

// Root returns the components directory
func (s *ComponentScanner) Root() string {
	return s.opts.Root
}

// Errors returns the non-fatal problems found by the last scan
func (s *ComponentScanner) Errors() []error {
	return s.errors.GetAllErrors()
}

// ScanDirectory scans the components directory and replaces the registry
// tree. Broken config files and orphaned variant views are logged and do not
// fail the scan.
func (s *ComponentScanner) ScanDirectory(ctx context.Context) (types.TreeEvent, error) {
	components, err := s.Scan(ctx)
	if err != nil {
		return types.TreeEvent{}, err
	}

	if s.errors.HasErrors() {
		for _, problem := range s.errors.GetAllErrors() {
			s.logger.Warn(ctx, problem, "Component problem ignored")
		}
	}

	event := s.registry.Replace(components)
	s.logger.Debug(ctx, "Component tree published",
		"event", string(event.Type),
		"components", len(components))
	return event, nil
}

// Scan discovers components without touching the registry.
func (s *ComponentScanner) Scan(ctx context.Context) ([]types.Component, error) {
	s.errors.Clear()

	info, err := os.Stat(s.opts.Root)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "components path not readable", err).
			WithFile(s.opts.Root)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidPath, "components path is not a directory").
			WithFile(s.opts.Root)
	}

	var views []string
	variantViews := make(map[string][]string)

	err = filepath.WalkDir(s.opts.Root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.opts.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(rel) || path.Ext(rel) != s.opts.Ext {
			return nil
		}

		base := strings.TrimSuffix(path.Base(rel), s.opts.Ext)
		if idx := strings.Index(base, "--"); idx > 0 {
			owner := path.Join(path.Dir(rel), base[:idx])
			variantViews[owner] = append(variantViews[owner], rel)
			return nil
		}

		views = append(views, rel)
		return nil
	})
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "failed to walk components path", err).
			WithFile(s.opts.Root)
	}

	sort.Strings(views)
	components := make([]types.Component, 0, len(views))
	for _, rel := range views {
		owner := strings.TrimSuffix(rel, s.opts.Ext)
		components = append(components, s.buildComponent(rel, variantViews[owner]))
		delete(variantViews, owner)
	}
	s.reportOrphans(variantViews)

	return components, nil
}

// reportOrphans records variant views whose owner view does not exist.
func (s *ComponentScanner) reportOrphans(orphans map[string][]string) {
	owners := make([]string, 0, len(orphans))
	for owner := range orphans {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		files := orphans[owner]
		sort.Strings(files)
		for _, file := range files {
			s.errors.AddError(errors.NewValidationError(errors.ErrCodeOrphanVariant, "variant view has no component view").
				WithComponent(Handle(path.Base(owner))).
				WithFile(file).
				WithContext("expected", owner+s.opts.Ext))
		}
	}
}

// excluded reports whether rel matches one of the exclude patterns
func (s *ComponentScanner) excluded(rel string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *ComponentScanner) buildComponent(rel string, variantFiles []string) types.Component {
	dir := path.Dir(rel)
	name := strings.TrimSuffix(path.Base(rel), s.opts.Ext)
	handle := Handle(name)
	absDir := filepath.Join(s.opts.Root, filepath.FromSlash(dir))

	cfg, cfgPath, err := loadConfig(absDir, name)
	if err != nil {
		s.errors.AddError(errors.NewValidationError(errors.ErrCodeComponentConfig, "invalid component config").
			WithComponent(handle).
			WithFile(cfgPath).
			WithContext("cause", err.Error()))
		cfg = componentConfig{}
	}

	title := cfg.Title
	if title == "" {
		title = Title(handle)
	}

	component := types.Component{
		Handle:      handle,
		Name:        name,
		Title:       title,
		RelViewPath: rel,
		Context:     types.MergeContext(nil, cfg.Context),
		Status:      cfg.Status,
		Hidden:      cfg.Hidden || strings.HasPrefix(name, "_"),
	}

	if dir != "." && Handle(path.Base(dir)) == handle {
		if readme, err := os.ReadFile(filepath.Join(absDir, "README.md")); err == nil {
			component.Notes = s.notes.Render(readme)
		}
	}

	component.Variants = s.buildVariants(component, cfg, variantFiles)
	return component
}

func (s *ComponentScanner) buildVariants(component types.Component, cfg componentConfig, variantFiles []string) []types.Variant {
	viewByVariant := make(map[string]string, len(variantFiles))
	for _, file := range variantFiles {
		base := strings.TrimSuffix(path.Base(file), s.opts.Ext)
		viewByVariant[Handle(base[strings.Index(base, "--")+2:])] = file
	}

	defaultName := cfg.Default
	if defaultName == "" {
		defaultName = DefaultVariant
	}

	ordered := make([]variantConfig, 0, len(cfg.Variants)+len(variantFiles)+1)
	ordered = append(ordered, variantConfig{Name: defaultName})
	for _, v := range cfg.Variants {
		if Handle(v.Name) == Handle(defaultName) {
			ordered[0] = v
			continue
		}
		ordered = append(ordered, v)
	}

	seen := make(map[string]bool, len(ordered))
	for _, v := range ordered {
		seen[Handle(v.Name)] = true
	}
	var fileOnly []string
	for name := range viewByVariant {
		if !seen[name] {
			fileOnly = append(fileOnly, name)
		}
	}
	sort.Strings(fileOnly)
	for _, name := range fileOnly {
		ordered = append(ordered, variantConfig{Name: name})
	}

	variants := make([]types.Variant, 0, len(ordered))
	for i, v := range ordered {
		if v.Name == "" {
			continue
		}
		slug := Handle(v.Name)
		view, ok := viewByVariant[slug]
		if !ok {
			view = component.RelViewPath
		}
		title := v.Title
		if title == "" {
			title = Title(slug)
		}
		variants = append(variants, types.Variant{
			Handle:      VariantHandle(component.Handle, v.Name),
			Name:        slug,
			Title:       title,
			RelViewPath: view,
			Context:     types.MergeContext(component.Context, v.Context),
			IsDefault:   i == 0,
		})
	}
	return variants
}

// loadConfig reads <dir>/<name>.config.{yml,yaml,json}. A missing file is
// not an error and yields an empty config.
func loadConfig(dir, name string) (componentConfig, string, error) {
	var cfg componentConfig
	for _, ext := range configExtensions {
		file := filepath.Join(dir, name+".config"+ext)
		data, err := os.ReadFile(file)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return cfg, file, err
		}
		if ext == ".json" {
			err = json.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		return cfg, file, err
	}
	return cfg, "", nil
}
