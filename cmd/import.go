// =============================================================================
// wp-import - Import Command
// =============================================================================
//
// This file defines the 'import' command, the main command of the tool. It
// checks the arguments, resolves the PostgreSQL credentials and hands the
// dump paths to the importer.
//
// COMMAND USAGE:
//   wp-import import [flags] [paths...]
//
// EXIT CODES:
//   1 - one or more dumps failed to import
//   2 - wrong or missing argument
//   3 - no such file or directory
//   4 - password resolution failed
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/JoKnopp/wp-import/internal/config"
	"github.com/JoKnopp/wp-import/internal/pgimport"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	pgHost     string
	pgPort     string
	pgUser     string
	pgPassword string
	pgPassfile string
	reimport   bool
	dryRun     bool
	jobs       int
)

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Import dump files found at or beneath the given paths",
	Long: `The import command walks the given paths, picks up every file whose
name matches the configured dump file pattern and imports the dumps of
all enabled languages.

Single-table SQL dumps (*.sql, *.sql.gz, *.sql.bz2) are rewritten to
PostgreSQL dialect and piped into psql. pages-articles XML dumps are
first converted with xml2sql into page, revision and text SQL files.

Tables that are already present are skipped unless --reimport is given,
in which case they are truncated and reloaded. A dump whose bulk load
fails has its half-filled table dropped, so the next run starts clean.

Unless --pg-password is given, the password is read from the pgpass-style
file named by --pg-passfile, the configuration, or ~/.pgpass.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runImport(cmd.Context(), args); err != nil {
			logger.Error().Err(err).Msg("import failed")
			os.Exit(exitCode(err))
		}
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&pgHost, "pg-host", "", "PostgreSQL host (default from config)")
	importCmd.Flags().StringVar(&pgPort, "pg-port", "", "PostgreSQL port (default from config)")
	importCmd.Flags().StringVar(&pgUser, "pg-user", "", "PostgreSQL user (default from config)")
	importCmd.Flags().StringVar(&pgPassword, "pg-password", "", "PostgreSQL password (default: resolved from the passfile)")
	importCmd.Flags().StringVar(&pgPassfile, "pg-passfile", "", "pgpass-style credentials file (default from config, then ~/.pgpass)")
	importCmd.Flags().BoolVar(&reimport, "reimport", false, "truncate and reload tables that were already imported")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report which dumps would be imported")
	importCmd.Flags().IntVar(&jobs, "jobs", 2, "number of languages imported concurrently")
}

// =============================================================================
// MAIN IMPORT FUNCTION
// =============================================================================

func runImport(ctx context.Context, paths []string) error {
	start := time.Now()

	if err := checkPaths(paths); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return classifyConfigError(err)
	}

	opts := importOptions(cfg)
	if opts.Password == "" && !opts.DryRun {
		passfile, err := passfilePath(cfg)
		if err != nil {
			return &cliError{code: exitPassword, err: err}
		}
		opts.Password, err = resolvePassword(passfile, opts)
		if err != nil {
			return err
		}
	}

	runLogger := logger.With().Str("run_id", uuid.NewString()).Logger()
	imp, err := pgimport.New(cfg, opts, runLogger)
	if err != nil {
		return &cliError{code: exitArgument, err: err}
	}

	results, err := imp.ImportDumps(ctx, paths)
	if err != nil {
		return err
	}

	var imported, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Skipped:
			skipped++
		default:
			imported++
		}
	}

	fmt.Println("=== Import complete ===")
	fmt.Printf("Dumps found:   %d\n", len(results))
	fmt.Printf("Imported:      %d\n", imported)
	fmt.Printf("Skipped:       %d\n", skipped)
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Time elapsed:  %s\n", time.Since(start).Round(time.Second))

	if failed > 0 {
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("  ✗ %s: %v\n", filepath.Base(r.Dump.Path), r.Err)
			}
		}
		return errors.Errorf("%d of %d dumps failed", failed, len(results))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// checkPaths validates the dump path arguments: at least one path, and
// every path must exist.
func checkPaths(paths []string) error {
	if len(paths) == 0 {
		return &cliError{code: exitArgument, err: errors.New("no dump paths given")}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return &cliError{code: exitNoEnt, err: errors.WithMessagef(err, "dump path %s", path)}
		}
	}
	return nil
}

// importOptions merges command line flags with config file defaults;
// flags win.
func importOptions(cfg *config.Config) pgimport.Options {
	opts := pgimport.Options{
		Host:     cfg.PostgreSQL.Host,
		Port:     cfg.PostgreSQL.Port,
		User:     cfg.PostgreSQL.User,
		Password: pgPassword,
		Reimport: reimport,
		DryRun:   dryRun,
		Jobs:     jobs,
	}
	if pgHost != "" {
		opts.Host = pgHost
	}
	if pgPort != "" {
		opts.Port = pgPort
	}
	if pgUser != "" {
		opts.User = pgUser
	}
	return opts
}

// passfilePath picks the pgpass-style file: the --pg-passfile flag, then
// the configuration, then ~/.pgpass.
func passfilePath(cfg *config.Config) (string, error) {
	if pgPassfile != "" {
		return pgPassfile, nil
	}
	if cfg.PostgreSQL.Passfile != "" {
		return cfg.PostgreSQL.Passfile, nil
	}
	return pgimport.DefaultPassfile()
}

// resolvePassword reads the password for the maintenance connection from
// the pgpass-style file. A missing file or a file without a matching
// line is a password failure.
func resolvePassword(passfile string, opts pgimport.Options) (string, error) {
	password, err := pgimport.PasswordFromPgpass(passfile, opts.Host, opts.Port, opts.User)
	if err != nil {
		return "", &cliError{code: exitPassword, err: err}
	}
	return password, nil
}
