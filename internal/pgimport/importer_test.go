package pgimport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/JoKnopp/wp-import/internal/config"
	"github.com/JoKnopp/wp-import/internal/dump"
	"github.com/JoKnopp/wp-import/internal/schema"
	"github.com/JoKnopp/wp-import/internal/sqldump"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Languages: map[string]bool{"de": true, "en": true},
	}
	cfg.Database.NameTemplate = "wp_{language}_{date}"
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	cfg.Patterns.DumpFile = config.DefaultDumpFilePattern
	imp, err := New(cfg, Options{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if imp.opts.Jobs != 1 {
		t.Errorf("Jobs defaulted to %d, want 1", imp.opts.Jobs)
	}

	cfg.Patterns.DumpFile = "("
	if _, err := New(cfg, Options{}, zerolog.Nop()); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestDatabaseName(t *testing.T) {
	cfg := testConfig()
	cfg.Patterns.DumpFile = config.DefaultDumpFilePattern
	imp, err := New(cfg, Options{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	info := dump.Info{Language: "de", Date: "20091023", Table: "pagelinks"}
	if got := imp.databaseName(info); got != "wp_de_20091023" {
		t.Errorf("got %q", got)
	}
}

func TestPrimaryKeySQL(t *testing.T) {
	tbl := schema.Table{Name: "langlinks", PrimaryKey: []string{"ll_from", "ll_lang"}}
	got := primaryKeySQL(tbl)
	want := `ALTER TABLE "langlinks" ADD CONSTRAINT "langlinks_pkey" PRIMARY KEY ("ll_from", "ll_lang")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndexSQL(t *testing.T) {
	idx := schema.Index{Name: "ll_lang_title", Columns: []string{"ll_lang", "ll_title"}}
	got := indexSQL("langlinks", idx)
	want := `CREATE INDEX "ll_lang_title" ON "langlinks" ("ll_lang", "ll_title")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	idx.Unique = true
	got = indexSQL("langlinks", idx)
	if !strings.HasPrefix(got, "CREATE UNIQUE INDEX") {
		t.Errorf("got %q, want a unique index", got)
	}
}

func TestQuoteDSN(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"localhost", "localhost"},
		{"", "''"},
		{"pass word", "'pass word'"},
		{`o'brien`, `'o\'brien'`},
		{`back\slash`, `'back\\slash'`},
	}
	for _, tc := range testCases {
		if got := quoteDSN(tc.in); got != tc.want {
			t.Errorf("quoteDSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func TestWriteStatements(t *testing.T) {
	buf := nopWriteCloser{&bytes.Buffer{}}
	stmts := sqldump.NewRaw(strings.NewReader("INSERT INTO x VALUES (1);\nINSERT INTO x VALUES (2);\n"), zerolog.Nop())
	if err := writeStatements(buf, stmts); err != nil {
		t.Fatal(err)
	}
	want := "INSERT INTO x VALUES (1);\nINSERT INTO x VALUES (2);\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
