// Package cmd provides the command-line interface for swatch.
//
// Configuration System:
//
//	The CLI reads its configuration from several sources with clear precedence:
//	1. Command-line flags (--config, --output, etc.) - highest priority
//	2. SWATCH_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (SWATCH_SITE_OUTPUT, etc.)
//	4. Configuration file (.swatch.yml) - lowest priority
//
// Relative paths in the configuration are resolved against the directory of
// the config file in use, or the working directory when there is none.
//
// Environment Variables:
//
//	SWATCH_CONFIG_FILE: Path to custom configuration file
//	SWATCH_COMPONENTS_PATH: Override the components directory
//	SWATCH_MAP_FILE: Override where the component map is written
//	And every other key following the SWATCH_<SECTION>_<KEY> pattern
package cmd

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/swatch/internal/config"
	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/logging"
)

// configFileEnv names the environment variable holding a config file path
const configFileEnv = "SWATCH_CONFIG_FILE"

type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string

	v *viper.Viper
}

// NewRootCommand builds the swatch command tree. Each call returns fresh
// state, so tests can execute commands side by side.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "swatch",
		Short: "Host a template component library and render its components anywhere",
		Long: `Swatch discovers the components of a template library, publishes them as a
component map, and lets any template include a component by handle with the
render tag:

  {% render "@button" %}
  {% render "@button", { "label": "Save" } %}
  {% render "@button", { "label": "Save" }, true %}

With partial set, the data is merged over the component's default context.

Quick Start:
  swatch components-file          Write the component map
  swatch list                     List all components
  swatch render @button           Render one component to stdout
  swatch build                    Build the static site
  swatch watch                    Rebuild on every change`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is .swatch.yml, can also use "+configFileEnv+" env var)")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	AddFlagValidation(flags, "log-level", func(level string) error {
		_, err := logging.ParseLevel(level)
		return err
	})
	AddFlagValidation(flags, "log-format", ValidateChoice("log format", "text", "json"))

	root.AddCommand(
		newComponentsFileCommand(opts),
		newListCommand(opts),
		newRenderCommand(opts),
		newBuildCommand(opts),
		newWatchCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the swatch command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// initConfig prepares a viper instance with the configuration file and
// environment overrides.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. SWATCH_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .swatch.yml in current directory
//
// An explicit file that cannot be read is an error, a missing default file
// is not.
func (o *rootOptions) initConfig() error {
	v := viper.New()

	explicit := o.cfgFile
	if explicit == "" {
		explicit = os.Getenv(configFileEnv)
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".swatch")
	}

	config.ConfigureEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !stderrors.As(err, &notFound) {
			return errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to read config file").
				WithFile(explicit)
		}
	}

	o.v = v
	return nil
}

// newLogger builds the logger selected by --log-level and --log-format.
func (o *rootOptions) newLogger(w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: o.logFormat,
		Output: w,
	}), nil
}
