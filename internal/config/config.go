// Package config loads and validates the wp-import configuration file.
//
// The configuration is a single YAML document with four sections:
//
//	database:   how target database names are derived from dump files
//	languages:  which wiki languages are imported
//	patterns:   how dump filenames are recognised and split up
//	postgresql: connection defaults, overridable from the command line
package config

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultDumpFilePattern matches the filenames published on
// dumps.wikimedia.org, e.g. "dewiki-20091023-pagelinks.sql.gz" or
// "enwiki-20091017-pages-articles.xml.bz2".
const DefaultDumpFilePattern = `^(?P<language>[a-z_]+)wiki-(?P<date>\d{8})-(?P<table>[\w-]+?)\.(sql|xml)(\.(gz|bz2))?$`

// requiredGroups are the named groups the dump file pattern must define.
var requiredGroups = []string{"language", "date", "table"}

// Config is the top-level configuration document.
type Config struct {
	Database   Database        `yaml:"database"`
	Languages  map[string]bool `yaml:"languages"`
	Patterns   Patterns        `yaml:"patterns"`
	PostgreSQL PostgreSQL      `yaml:"postgresql"`
	Logging    Logging         `yaml:"logging"`
}

// Database controls how target database names are built.
type Database struct {
	// NameTemplate names the database a dump is imported into. The
	// placeholders {language}, {date} and {table} are replaced with the
	// values extracted from the dump filename.
	NameTemplate string `yaml:"name_template"`
}

// Patterns holds the filename patterns used during dump discovery.
type Patterns struct {
	// DumpFile is a regular expression that dump filenames must match.
	// It must define the named groups "language", "date" and "table".
	DumpFile string `yaml:"dump_file"`
}

// PostgreSQL holds connection defaults. Command line flags take
// precedence over every field in here.
type PostgreSQL struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Passfile string `yaml:"passfile"`
}

// Logging holds defaults for the log sinks set up by the CLI.
type Logging struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Load reads and validates the configuration file at path. Missing
// optional fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "read config %s", path)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.WithMessagef(err, "parse config %s", path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.NameTemplate == "" {
		c.Database.NameTemplate = "wp_{language}_{date}"
	}
	if c.Patterns.DumpFile == "" {
		c.Patterns.DumpFile = DefaultDumpFilePattern
	}
	if c.PostgreSQL.Host == "" {
		c.PostgreSQL.Host = "localhost"
	}
	if c.PostgreSQL.Port == "" {
		c.PostgreSQL.Port = "5432"
	}
	if c.PostgreSQL.User == "" {
		c.PostgreSQL.User = "postgres"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for problems that would otherwise
// only surface in the middle of an import run.
func (c *Config) Validate() error {
	pat, err := c.DumpFilePattern()
	if err != nil {
		return err
	}
	for _, group := range requiredGroups {
		if pat.SubexpIndex(group) < 0 {
			return errors.Errorf("dump file pattern is missing the (?P<%s>...) group", group)
		}
	}

	if !strings.Contains(c.Database.NameTemplate, "{language}") {
		return errors.New("database name template must contain {language}, imports from different wikis would collide")
	}

	if len(c.EnabledLanguages()) == 0 {
		return errors.New("no languages enabled")
	}

	if _, err := strconv.Atoi(c.PostgreSQL.Port); err != nil {
		return errors.Errorf("postgresql port %q is not a number", c.PostgreSQL.Port)
	}
	return nil
}

// DumpFilePattern compiles the configured dump filename pattern.
func (c *Config) DumpFilePattern() (*regexp.Regexp, error) {
	pat, err := regexp.Compile(c.Patterns.DumpFile)
	if err != nil {
		return nil, errors.WithMessage(err, "compile dump file pattern")
	}
	return pat, nil
}

// EnabledLanguages returns the sorted list of languages that are switched
// on in the languages section.
func (c *Config) EnabledLanguages() []string {
	langs := make([]string, 0, len(c.Languages))
	for lang, enabled := range c.Languages {
		if enabled {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Enabled reports whether dumps for the given language should be imported.
func (c *Config) Enabled(language string) bool {
	return c.Languages[language]
}

// Name expands the database name template for one dump file.
func (d Database) Name(language, date, table string) string {
	r := strings.NewReplacer(
		"{language}", language,
		"{date}", date,
		"{table}", table,
	)
	return r.Replace(d.NameTemplate)
}
