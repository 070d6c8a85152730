// =============================================================================
// wp-import - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which loads and checks the
// configuration without importing anything.
//
// COMMAND USAGE:
//   wp-import validate [--config file]
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JoKnopp/wp-import/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without importing anything",
	Long: `The validate command loads the configuration file, checks the dump
file pattern and the database name template, and prints a short summary
of what an import run would use.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(); err != nil {
			logger.Error().Err(err).Msg("configuration")
			os.Exit(exitCode(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate() error {
	cfg, err := loadConfig()
	if err != nil {
		return classifyConfigError(err)
	}

	fmt.Println("Configuration OK")
	fmt.Printf("Enabled languages:  %s\n", strings.Join(cfg.EnabledLanguages(), ", "))
	fmt.Printf("Dump file pattern:  %s\n", cfg.Patterns.DumpFile)
	fmt.Printf("Database template:  %s\n", cfg.Database.NameTemplate)
	fmt.Printf("  e.g. dewiki-20091023-pagelinks.sql.gz -> %s\n",
		cfg.Database.Name("de", "20091023", "pagelinks"))
	fmt.Printf("PostgreSQL:         %s@%s:%s\n",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)
	fmt.Printf("Known dump tables:  %s\n", strings.Join(schema.Names(), ", "))
	return nil
}
