package sqldump

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func collect(t *testing.T, p *Pipeline) []string {
	t.Helper()
	var stmts []string
	for {
		stmt, err := p.Next()
		if err == io.EOF {
			return stmts
		}
		if err != nil {
			t.Fatal(err)
		}
		stmts = append(stmts, stmt)
	}
}

func TestPipelineFiltersAndRewrites(t *testing.T) {
	dump := strings.Join([]string{
		"-- MySQL dump 10.11",
		"DROP TABLE IF EXISTS `langlinks`;",
		"CREATE TABLE `langlinks` (",
		"  `ll_from` int(8) unsigned NOT NULL default '0'",
		");",
		"LOCK TABLES `langlinks` WRITE;",
		"INSERT INTO `langlinks` VALUES (43017,'af','Dante Alighieri');",
		"UNLOCK TABLES;",
		"",
	}, "\n")

	p := New(strings.NewReader(dump), "langlinks", zerolog.Nop())
	got := collect(t, p)
	want := []string{`INSERT INTO "langlinks" VALUES (43017,'af','Dante Alighieri');`}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %q, want %q", got, want)
	}
	if p.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", p.Dropped())
	}
}

func TestPipelineCategorylinksTimestamps(t *testing.T) {
	dump := "INSERT INTO `categorylinks` VALUES (130,'Linux','Linux',20060725190322);\n"
	p := New(strings.NewReader(dump), "categorylinks", zerolog.Nop())
	got := collect(t, p)
	want := `INSERT INTO "categorylinks" VALUES (130,'Linux','Linux','2006-07-25T19:03:22Z');`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPipelineDropsUndecodableRows(t *testing.T) {
	bad := "INSERT INTO `pagelinks` VALUES (1,0,'Good'),(2,0,'B\xffad'),(3,0,'Fine');\n"
	p := New(strings.NewReader(bad), "pagelinks", zerolog.Nop())
	got := collect(t, p)
	want := `INSERT INTO "pagelinks" VALUES (1,0,'Good'),(3,0,'Fine');`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if p.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", p.Dropped())
	}
}

func TestPipelineDropsFullyUndecodableStatement(t *testing.T) {
	bad := "INSERT INTO `text` VALUES (1,'\xff\xfe');\n" +
		"INSERT INTO `text` VALUES (2,'ok');\n"
	p := New(strings.NewReader(bad), "text", zerolog.Nop())
	got := collect(t, p)
	want := `INSERT INTO "text" VALUES (2,'ok');`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewRawPassesLinesThrough(t *testing.T) {
	raw := "CREATE TABLE page ();\nINSERT INTO page VALUES (1);\n"
	p := NewRaw(strings.NewReader(raw), zerolog.Nop())
	got := collect(t, p)
	if len(got) != 2 || got[0] != "CREATE TABLE page ();" || got[1] != "INSERT INTO page VALUES (1);" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteQuotes(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"f `b`", `f "b"`},
		{"baz", "baz"},
		{"shrubbery ``", `shrubbery ""`},
	}
	for _, tc := range testCases {
		if got := RewriteQuotes(tc.in); got != tc.want {
			t.Errorf("RewriteQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRewriteTimestamps(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{",20080218135752) foo", ",'2008-02-18T13:57:52Z') foo"},
		{"(130,'Linux',20060725190322)", "(130,'Linux','2006-07-25T19:03:22Z')"},
		// Fourteen digits that are not a plausible timestamp stay as-is.
		{",20089918135752)", ",20089918135752)"},
		// Numbers not delimited by the row syntax stay as-is.
		{"'20080218135752'", "'20080218135752'"},
	}
	for _, tc := range testCases {
		if got := RewriteTimestamps(tc.in); got != tc.want {
			t.Errorf("RewriteTimestamps(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSingleRows(t *testing.T) {
	stmt := []byte("INSERT INTO `redirect` VALUES (1,0,'a'),(2,0,'b'),(3,0,'c');")
	rows := SingleRows(stmt)
	want := []string{"(1,0,'a')", "(2,0,'b')", "(3,0,'c')"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if string(row) != want[i] {
			t.Errorf("row %d = %q, want %q", i, row, want[i])
		}
	}
}

func TestPipelineLongLines(t *testing.T) {
	// One INSERT line larger than the initial scanner buffer.
	var b strings.Builder
	b.WriteString("INSERT INTO `pagelinks` VALUES ")
	for i := 0; i < 20000; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(12345,0,'Some_fairly_long_page_title_to_pad_the_line')")
	}
	b.WriteString(";\n")

	p := New(strings.NewReader(b.String()), "pagelinks", zerolog.Nop())
	got := collect(t, p)
	if len(got) != 1 {
		t.Fatalf("got %d statements, want 1", len(got))
	}
	if !strings.HasPrefix(got[0], `INSERT INTO "pagelinks" VALUES `) {
		t.Errorf("unexpected prefix: %.60q", got[0])
	}
}
