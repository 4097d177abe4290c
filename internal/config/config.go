// Package config provides configuration management for swatch using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration covers where components live and how they are matched,
// the template engine options, where the component map is written, which
// assets are copied verbatim, and how the static site is built. Values can be
// overridden with SWATCH_<SECTION>_<KEY> environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

type Config struct {
	Project    ProjectConfig    `mapstructure:"project" yaml:"project"`
	Components ComponentsConfig `mapstructure:"components" yaml:"components"`
	Templates  TemplatesConfig  `mapstructure:"templates" yaml:"templates"`
	Map        MapConfig        `mapstructure:"map" yaml:"map"`
	Assets     AssetsConfig     `mapstructure:"assets" yaml:"assets"`
	Site       SiteConfig       `mapstructure:"site" yaml:"site"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
}

type ProjectConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
}

// ComponentsConfig describes the component library source.
type ComponentsConfig struct {
	Path    string   `mapstructure:"path" yaml:"path"`
	Ext     string   `mapstructure:"ext" yaml:"ext"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// TemplatesConfig holds template engine options. Paths are searched after
// the components directory when a template is loaded by name.
type TemplatesConfig struct {
	Paths        []string `mapstructure:"paths" yaml:"paths"`
	TrimBlocks   bool     `mapstructure:"trim_blocks" yaml:"trim_blocks"`
	LStripBlocks bool     `mapstructure:"lstrip_blocks" yaml:"lstrip_blocks"`
}

type MapConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// AssetsConfig lists the passthrough copy rules. Output is relative to the
// site output directory.
type AssetsConfig struct {
	Path     string   `mapstructure:"path" yaml:"path"`
	Output   string   `mapstructure:"output" yaml:"output"`
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
}

type SiteConfig struct {
	Pages  string `mapstructure:"pages" yaml:"pages"`
	Ext    string `mapstructure:"ext" yaml:"ext"`
	Output string `mapstructure:"output" yaml:"output"`
	Minify bool   `mapstructure:"minify" yaml:"minify"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// DefaultAssetPatterns copy media, fonts, scripts and JSON files.
var DefaultAssetPatterns = []string{
	"**/*.{png,jpg,jpeg,gif,svg,webp,ico,mp4,webm}",
	"**/*.{woff,woff2,ttf,otf,eot}",
	"**/*.js",
	"**/*.json",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.title", "Component Library")
	v.SetDefault("components.path", "assets")
	v.SetDefault("components.ext", ".html")
	v.SetDefault("components.exclude", []string{"**/*~"})
	v.SetDefault("templates.paths", []string{})
	v.SetDefault("templates.trim_blocks", true)
	v.SetDefault("templates.lstrip_blocks", true)
	v.SetDefault("map.file", "components.json")
	v.SetDefault("assets.path", "assets")
	v.SetDefault("assets.output", "assets")
	v.SetDefault("assets.patterns", DefaultAssetPatterns)
	v.SetDefault("site.pages", "pages")
	v.SetDefault("site.ext", ".html")
	v.SetDefault("site.output", "public")
	v.SetDefault("site.minify", false)
	v.SetDefault("watch.debounce", 250*time.Millisecond)
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// ConfigureEnv enables SWATCH_ prefixed environment overrides on v, so that
// SWATCH_SITE_OUTPUT overrides site.output.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix("SWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v. Defaults are
// registered on v first so environment overrides apply to every key.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Components.Ext = normalizeExt(config.Components.Ext)
	config.Site.Ext = normalizeExt(config.Site.Ext)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	cfg, err := LoadFrom(viper.New())
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}

	for _, p := range config.Templates.Paths {
		if err := validatePath(p); err != nil {
			return fmt.Errorf("templates config: invalid path '%s': %w", p, err)
		}
	}

	if err := validatePath(config.Map.File); err != nil {
		return fmt.Errorf("map config: invalid file '%s': %w", config.Map.File, err)
	}

	if err := validateAssetsConfig(&config.Assets); err != nil {
		return fmt.Errorf("assets config: %w", err)
	}

	if err := validateSiteConfig(&config.Site); err != nil {
		return fmt.Errorf("site config: %w", err)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: negative debounce %s", config.Watch.Debounce)
	}

	return nil
}

func validateComponentsConfig(config *ComponentsConfig) error {
	if err := validatePath(config.Path); err != nil {
		return fmt.Errorf("invalid path '%s': %w", config.Path, err)
	}
	if config.Ext == "" {
		return fmt.Errorf("empty view extension")
	}
	return validatePatterns(config.Exclude)
}

func validateAssetsConfig(config *AssetsConfig) error {
	if err := validatePath(config.Path); err != nil {
		return fmt.Errorf("invalid path '%s': %w", config.Path, err)
	}
	if config.Output != "" {
		if err := validatePath(config.Output); err != nil {
			return fmt.Errorf("invalid output '%s': %w", config.Output, err)
		}
	}
	return validatePatterns(config.Patterns)
}

func validateSiteConfig(config *SiteConfig) error {
	if err := validatePath(config.Pages); err != nil {
		return fmt.Errorf("invalid pages path '%s': %w", config.Pages, err)
	}
	if err := validatePath(config.Output); err != nil {
		return fmt.Errorf("invalid output path '%s': %w", config.Output, err)
	}
	if config.Ext == "" {
		return fmt.Errorf("empty page extension")
	}
	return nil
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern '%s'", pattern)
		}
	}
	return nil
}

// validatePath validates a project-relative path
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	for _, segment := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if segment == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
