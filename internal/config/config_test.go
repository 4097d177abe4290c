package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "assets", config.Components.Path)
	assert.Equal(t, ".html", config.Components.Ext)
	assert.Equal(t, []string{"**/*~"}, config.Components.Exclude)
	assert.True(t, config.Templates.TrimBlocks)
	assert.True(t, config.Templates.LStripBlocks)
	assert.Equal(t, "components.json", config.Map.File)
	assert.Equal(t, DefaultAssetPatterns, config.Assets.Patterns)
	assert.Equal(t, "public", config.Site.Output)
	assert.False(t, config.Site.Minify)
	assert.Equal(t, 250*time.Millisecond, config.Watch.Debounce)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "extension without dot is normalized",
			setup: func(v *viper.Viper) {
				v.Set("components.ext", "njk")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".njk", cfg.Components.Ext)
			},
		},
		{
			name: "custom exclude patterns",
			setup: func(v *viper.Viper) {
				v.Set("components.exclude", []string{"**/*.bak", "**/_*"})
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"**/*.bak", "**/_*"}, cfg.Components.Exclude)
			},
		},
		{
			name: "trim blocks can be disabled",
			setup: func(v *viper.Viper) {
				v.Set("templates.trim_blocks", false)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Templates.TrimBlocks)
				assert.True(t, cfg.Templates.LStripBlocks)
			},
		},
		{
			name: "debounce parsed from string",
			setup: func(v *viper.Viper) {
				v.Set("watch.debounce", "1s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, time.Second, cfg.Watch.Debounce)
			},
		},
		{
			name: "path traversal rejected",
			setup: func(v *viper.Viper) {
				v.Set("components.path", "../outside")
			},
			expectError: true,
		},
		{
			name: "dangerous map file rejected",
			setup: func(v *viper.Viper) {
				v.Set("map.file", "out;rm.json")
			},
			expectError: true,
		},
		{
			name: "invalid glob rejected",
			setup: func(v *viper.Viper) {
				v.Set("assets.patterns", []string{"**/*.{png"})
			},
			expectError: true,
		},
		{
			name: "negative debounce rejected",
			setup: func(v *viper.Viper) {
				v.Set("watch.debounce", "-1s")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			config, err := LoadFrom(v)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, config)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".swatch.yml")
	content := `project:
  title: Nunjucks Integration Demo
components:
  path: src/components
  exclude:
    - "**/*~"
    - "**/*.draft.html"
site:
  minify: true
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())

	config, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "Nunjucks Integration Demo", config.Project.Title)
	assert.Equal(t, "src/components", config.Components.Path)
	assert.Equal(t, []string{"**/*~", "**/*.draft.html"}, config.Components.Exclude)
	assert.True(t, config.Site.Minify)
	assert.Equal(t, ".html", config.Components.Ext)
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Setenv("SWATCH_MAP_FILE", "build/components.json")
	t.Setenv("SWATCH_SITE_MINIFY", "true")

	v := viper.New()
	ConfigureEnv(v)

	config, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "build/components.json", config.Map.File)
	assert.True(t, config.Site.Minify)
}

func TestDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		cfg := Default()
		assert.Equal(t, "pages", cfg.Site.Pages)
	})
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("assets"))
	assert.NoError(t, validatePath("./a/b"))
	assert.NoError(t, validatePath("a..b"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("a/../../b"))
	assert.Error(t, validatePath("a|b"))
}
