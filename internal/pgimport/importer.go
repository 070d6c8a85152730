// Package pgimport loads Wikipedia dump files into PostgreSQL.
//
// Each dump file is imported into the database named by the configured
// template, one database per language and dump date. Tables are created
// on demand; primary keys and indexes are added after the bulk load.
// Already imported tables are skipped unless reimport is requested.
package pgimport

import (
	"context"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JoKnopp/wp-import/internal/config"
	"github.com/JoKnopp/wp-import/internal/dump"
	"github.com/JoKnopp/wp-import/internal/schema"
	"github.com/JoKnopp/wp-import/internal/sqldump"
)

// Options are the per-run settings, typically taken from command line
// flags with config file fallbacks.
type Options struct {
	Host     string
	Port     string
	User     string
	Password string

	// Reimport truncates and reloads tables that are already present.
	Reimport bool
	// DryRun reports what would be imported without touching the server.
	DryRun bool
	// Jobs bounds how many languages are imported concurrently.
	Jobs int
}

// Importer imports Wikipedia dumps into PostgreSQL databases.
type Importer struct {
	cfg    *config.Config
	opts   Options
	pat    *regexp.Regexp
	logger zerolog.Logger
}

// Result describes the outcome of importing one dump file.
type Result struct {
	Dump     dump.Info
	Database string
	Skipped  bool
	Err      error
}

// New builds an Importer from the loaded configuration and run options.
func New(cfg *config.Config, opts Options, logger zerolog.Logger) (*Importer, error) {
	pat, err := cfg.DumpFilePattern()
	if err != nil {
		return nil, err
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Importer{cfg: cfg, opts: opts, pat: pat, logger: logger}, nil
}

// ImportDumps imports the dump files found at or beneath the given paths.
// Dumps of languages that are not enabled in the configuration are
// ignored. Languages are imported concurrently, dumps within one language
// sequentially since they share a database.
func (imp *Importer) ImportDumps(ctx context.Context, paths []string) ([]Result, error) {
	infos, err := dump.Discover(imp.pat, paths...)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		imp.logger.Warn().Strs("paths", paths).Msg("no dump files found")
		return nil, nil
	}

	var enabled []dump.Info
	for _, info := range infos {
		if !imp.cfg.Enabled(info.Language) {
			imp.logger.Debug().
				Str("language", info.Language).
				Str("dump", info.Filename).
				Msg("language not enabled, skipping")
			continue
		}
		enabled = append(enabled, info)
	}

	groups := dump.GroupByLanguage(enabled)

	var (
		wg      sync.WaitGroup
		results = make(chan Result, len(enabled))
		sem     = make(chan struct{}, imp.opts.Jobs)
	)
	for _, group := range groups {
		wg.Add(1)
		go func(group dump.Group) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			imp.logger.Info().Str("language", group.Language).Msg("processing language")
			for _, info := range group.Dumps {
				results <- imp.importOne(ctx, info)
			}
		}(group)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []Result
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Dump.Path < collected[j].Dump.Path
	})
	return collected, nil
}

func (imp *Importer) importOne(ctx context.Context, info dump.Info) Result {
	dbName := imp.databaseName(info)
	r := Result{Dump: info, Database: dbName}

	if imp.opts.DryRun {
		imp.logger.Info().
			Str("dump", info.Filename).
			Str("database", dbName).
			Msg("dry run: would import")
		r.Skipped = true
		return r
	}

	imp.logger.Info().Str("dump", info.Filename).Msg("processing")

	var (
		skipped bool
		err     error
	)
	if info.PagesArticles() {
		skipped, err = imp.importPagesArticles(ctx, info, dbName)
	} else {
		skipped, err = imp.importSQLDump(ctx, info, dbName)
	}
	r.Skipped = skipped
	r.Err = err
	if err != nil {
		imp.logger.Error().Err(err).Str("dump", info.Filename).Msg("import failed")
	}
	return r
}

func (imp *Importer) databaseName(info dump.Info) string {
	return imp.cfg.Database.Name(info.Language, info.Date, info.Table)
}

// importSQLDump imports one single-table SQL dump.
func (imp *Importer) importSQLDump(ctx context.Context, info dump.Info, dbName string) (skipped bool, err error) {
	tbl, ok := schema.Lookup(info.Table)
	if !ok {
		return false, errors.Errorf("no schema definition for table %s", info.Table)
	}

	db, err := imp.ensureDatabase(ctx, dbName)
	if err != nil {
		return false, err
	}
	defer db.close()

	names, err := db.tableNames(ctx)
	if err != nil {
		return false, err
	}
	if names[tbl.Name] && !imp.opts.Reimport {
		db.logger.Info().Str("table", tbl.Name).Str("dump", info.Filename).Msg("table present, skipped import")
		return true, nil
	}

	if err := db.prepareTable(ctx, tbl, names); err != nil {
		return false, err
	}

	rc, err := dump.OpenCompressed(info.Path)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	stmts := sqldump.New(rc, tbl.Name, db.logger)
	if err := imp.loadTable(ctx, db, tbl, stmts); err != nil {
		return false, err
	}
	if dropped := stmts.Dropped(); dropped > 0 {
		db.logger.Warn().Str("table", tbl.Name).Int("rows", dropped).Msg("dropped undecodable rows")
	}
	return false, nil
}

// importPagesArticles converts a pages-articles XML dump with xml2sql and
// imports the resulting page, revision and text tables.
func (imp *Importer) importPagesArticles(ctx context.Context, info dump.Info, dbName string) (skipped bool, err error) {
	db, err := imp.ensureDatabase(ctx, dbName)
	if err != nil {
		return false, err
	}
	defer db.close()

	names, err := db.tableNames(ctx)
	if err != nil {
		return false, err
	}
	if !imp.opts.Reimport && names["page"] && names["revision"] && names["text"] {
		db.logger.Info().Str("dump", info.Filename).Msg("page, revision and text present, skipped import")
		return true, nil
	}

	outDir, files, err := imp.convertPagesArticles(ctx, info)
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(outDir)

	for _, table := range pagesArticlesTables {
		if names[table] && !imp.opts.Reimport {
			db.logger.Info().Str("table", table).Msg("table present, skipped import")
			continue
		}

		tbl, ok := schema.Lookup(table)
		if !ok {
			return false, errors.Errorf("no schema definition for table %s", table)
		}
		if err := db.prepareTable(ctx, tbl, names); err != nil {
			return false, err
		}

		f, err := os.Open(files[table])
		if err != nil {
			return false, errors.WithMessage(err, "open converted dump")
		}
		loadErr := imp.loadTable(ctx, db, tbl, sqldump.NewRaw(f, db.logger))
		f.Close()
		if loadErr != nil {
			return false, loadErr
		}
		os.Remove(files[table])
	}
	return false, nil
}

// prepareTable creates the table if it is missing; otherwise it strips
// the primary key and indexes and truncates it for the reimport.
func (d *database) prepareTable(ctx context.Context, tbl schema.Table, names map[string]bool) error {
	if !names[tbl.Name] {
		return d.createTable(ctx, tbl)
	}

	if err := d.dropPrimaryKey(ctx, tbl); err != nil {
		return err
	}
	if err := d.dropIndexes(ctx, tbl); err != nil {
		return err
	}
	return d.truncateTable(ctx, tbl.Name)
}

// loadTable bulk loads one table and finishes it with the primary key
// and indexes. A failed bulk load drops the half-filled table so that a
// later run starts clean.
func (imp *Importer) loadTable(ctx context.Context, db *database, tbl schema.Table, stmts statementSource) error {
	if err := imp.psqlPipe(ctx, db.name, tbl.Name, stmts); err != nil {
		db.logger.Warn().Str("table", tbl.Name).Msg("import failed, dropping table")
		if dropErr := db.dropTable(ctx, tbl.Name); dropErr != nil {
			db.logger.Error().Err(dropErr).Str("table", tbl.Name).Msg("drop after failed import")
		}
		return err
	}

	// Duplicate keys in a dump are rare but real; the data stays usable
	// without the constraint, so this is not fatal.
	if err := db.createPrimaryKey(ctx, tbl); err != nil {
		db.logger.Error().Err(err).Str("table", tbl.Name).Msg("could not create primary key constraint")
	}

	db.logger.Info().Str("table", tbl.Name).Msg("create indexes")
	return db.createIndexes(ctx, tbl)
}
