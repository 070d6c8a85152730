// =============================================================================
// wp-import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that the 'import', 'validate' and 'version' commands are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (wp-import)
//   ├── importCmd   (wp-import import)
//   ├── validateCmd (wp-import validate)
//   └── versionCmd  (wp-import version)
//
// The root command is responsible for:
//   1. The global flags (--config, --verbose, --quiet, --log-file)
//   2. Setting up logging before any subcommand runs
//   3. Locating and loading the configuration file
//
// =============================================================================

// Package cmd holds the wp-import command line interface.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JoKnopp/wp-import/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	exitFailure  = 1
	exitArgument = 2
	exitNoEnt    = 3
	exitPassword = 4
)

// cliError carries the process exit code for a failed command.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}

// classifyConfigError distinguishes a missing configuration file from a
// file that does not validate.
func classifyConfigError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &cliError{code: exitNoEnt, err: err}
	}
	return &cliError{code: exitArgument, err: err}
}

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

const configBasename = "wpimportrc.yaml"

var (
	cfgFile string
	verbose bool
	quiet   bool
	logFile string

	logger zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "wp-import",
	Short: "Import Wikipedia database dumps into PostgreSQL",
	Long: `wp-import imports Wikipedia database dumps into PostgreSQL.

Dump files are discovered beneath the paths given to the import command,
matched against the configured filename pattern and grouped by language.
Each dump is loaded into the database named by the configured template;
databases and tables are created as needed and primary keys and indexes
are built after the bulk load.

Example usage:
  wp-import import /data/dumps              # import everything enabled
  wp-import import --reimport /data/dumps   # truncate and reload
  wp-import validate                        # check the configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the CLI. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"path to the configuration file (default ~/."+configBasename+" or ./"+configBasename+")",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"enable debug output",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&quiet,
		"quiet",
		"q",
		false,
		"only log warnings and errors",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFile,
		"log-file",
		"",
		"additionally write JSON logs to this file",
	)
}

// =============================================================================
// LOGGING
// =============================================================================

// setupLogging builds the global logger: a console writer on stderr,
// filtered by --quiet/--verbose, plus an optional JSON file sink.
func setupLogging() error {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.WarnLevel
	case verbose:
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var sink io.Writer = console
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.WithMessagef(err, "open log file %s", logFile)
		}
		sink = zerolog.MultiLevelWriter(console, f)
	}

	logger = zerolog.New(sink).Level(level).With().Timestamp().Logger()
	return nil
}

// applyLoggingConfig folds the logging section of the configuration into
// the logger set up from the flags. Flags win over the config file.
func applyLoggingConfig(cfg *config.Config) error {
	if !quiet && !verbose && cfg.Logging.Level != "" {
		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return errors.WithMessagef(err, "logging level %q", cfg.Logging.Level)
		}
		logger = logger.Level(level)
	}

	if logFile == "" && cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.WithMessagef(err, "open log file %s", cfg.Logging.File)
		}
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = logger.Output(zerolog.MultiLevelWriter(console, f))
	}
	return nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig loads the configuration from --config or the default
// locations: ~/.wpimportrc.yaml, then ./wpimportrc.yaml.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	logger.Debug().Str("config", path).Msg("loading configuration")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyLoggingConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err == nil {
		path := filepath.Join(home, "."+configBasename)
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}

	path := configBasename
	if _, err := os.Stat(path); err != nil {
		return "", errors.WithMessagef(os.ErrNotExist,
			"no configuration file found, use --config or create ~/.%s", configBasename)
	}
	return path, nil
}
