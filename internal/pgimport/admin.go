package pgimport

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JoKnopp/wp-import/internal/schema"
)

// maintenanceDB is the database used for server-level work such as
// creating the per-dump databases.
const maintenanceDB = "postgres"

// database is an open connection to one target database.
type database struct {
	name   string
	db     *sql.DB
	logger zerolog.Logger
}

func (imp *Importer) connect(dbname string) (*sql.DB, error) {
	parts := []string{
		"host=" + quoteDSN(imp.opts.Host),
		"port=" + quoteDSN(imp.opts.Port),
		"user=" + quoteDSN(imp.opts.User),
		"dbname=" + quoteDSN(dbname),
		"sslmode=disable",
	}
	if imp.opts.Password != "" {
		parts = append(parts, "password="+quoteDSN(imp.opts.Password))
	}

	db, err := sql.Open("postgres", strings.Join(parts, " "))
	if err != nil {
		return nil, errors.WithMessagef(err, "open connection to %s", dbname)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WithMessagef(err, "connect to %s", dbname)
	}
	return db, nil
}

// quoteDSN quotes one value for a key-value connection string.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ensureDatabase connects to the named database, creating it first if it
// does not exist yet.
func (imp *Importer) ensureDatabase(ctx context.Context, name string) (*database, error) {
	admin, err := imp.connect(maintenanceDB)
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return nil, errors.WithMessage(err, "check database existence")
	}

	if !exists {
		imp.logger.Info().Str("database", name).Msg("create database")
		// CREATE DATABASE cannot be parameterised.
		_, err = admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
		if err != nil {
			return nil, errors.WithMessagef(err, "create database %s", name)
		}
	}

	db, err := imp.connect(name)
	if err != nil {
		return nil, err
	}
	return &database{
		name:   name,
		db:     db,
		logger: imp.logger.With().Str("database", name).Logger(),
	}, nil
}

func (d *database) close() {
	if err := d.db.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("close connection")
	}
}

// tableNames returns the tables present in the public schema.
func (d *database) tableNames(ctx context.Context) (map[string]bool, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public'`)
	if err != nil {
		return nil, errors.WithMessage(err, "list tables")
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func (d *database) createTable(ctx context.Context, tbl schema.Table) error {
	d.logger.Info().Str("table", tbl.Name).Msg("create table")
	if _, err := d.db.ExecContext(ctx, tbl.Create); err != nil {
		return errors.WithMessagef(err, "create table %s", tbl.Name)
	}
	return nil
}

func (d *database) truncateTable(ctx context.Context, name string) error {
	d.logger.Info().Str("table", name).Msg("truncate table")
	_, err := d.db.ExecContext(ctx, "TRUNCATE TABLE "+pq.QuoteIdentifier(name))
	return errors.WithMessagef(err, "truncate table %s", name)
}

func (d *database) dropTable(ctx context.Context, name string) error {
	d.logger.Info().Str("table", name).Msg("drop table")
	_, err := d.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(name))
	return errors.WithMessagef(err, "drop table %s", name)
}

func (d *database) createPrimaryKey(ctx context.Context, tbl schema.Table) error {
	if len(tbl.PrimaryKey) == 0 {
		return nil
	}
	_, err := d.db.ExecContext(ctx, primaryKeySQL(tbl))
	return err
}

func (d *database) dropPrimaryKey(ctx context.Context, tbl schema.Table) error {
	if len(tbl.PrimaryKey) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s",
		pq.QuoteIdentifier(tbl.Name), pq.QuoteIdentifier(tbl.Name+"_pkey"))
	_, err := d.db.ExecContext(ctx, stmt)
	return errors.WithMessagef(err, "drop primary key of %s", tbl.Name)
}

func (d *database) createIndexes(ctx context.Context, tbl schema.Table) error {
	for _, idx := range tbl.Indexes {
		if _, err := d.db.ExecContext(ctx, indexSQL(tbl.Name, idx)); err != nil {
			return errors.WithMessagef(err, "create index %s", idx.Name)
		}
	}
	return nil
}

func (d *database) dropIndexes(ctx context.Context, tbl schema.Table) error {
	for _, idx := range tbl.Indexes {
		stmt := "DROP INDEX IF EXISTS " + pq.QuoteIdentifier(idx.Name)
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.WithMessagef(err, "drop index %s", idx.Name)
		}
	}
	return nil
}

func primaryKeySQL(tbl schema.Table) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
		pq.QuoteIdentifier(tbl.Name),
		pq.QuoteIdentifier(tbl.Name+"_pkey"),
		quoteColumns(tbl.PrimaryKey))
}

func indexSQL(table string, idx schema.Index) string {
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)",
		kind,
		pq.QuoteIdentifier(idx.Name),
		pq.QuoteIdentifier(table),
		quoteColumns(idx.Columns))
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	return strings.Join(quoted, ", ")
}
