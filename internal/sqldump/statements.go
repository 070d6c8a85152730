// Package sqldump turns the MySQL-flavoured INSERT statements found in
// Wikipedia SQL dumps into statements PostgreSQL accepts.
//
// Dump files contain schema noise (DROP TABLE, CREATE TABLE, comments,
// LOCK TABLES) around very long multirow INSERT lines. Only the INSERT
// lines are kept; identifiers quoted with backquotes are rewritten to
// double quotes and, for categorylinks dumps, MySQL timestamps are
// rewritten to ISO 8601. Rows that are not valid UTF-8 are dropped
// rather than failing the whole dump.
package sqldump

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	// Multirow INSERT lines in the larger wikis easily run into tens of
	// megabytes, far past the default bufio.Scanner limit.
	initialBuf = 64 * 1024
	maxLineLen = 64 << 20
)

var (
	insertPat    = regexp.MustCompile(`^INSERT`)
	timestampPat = regexp.MustCompile(
		`([,(])(\d{4})([01]\d)([0-3]\d)([0-5]\d)([0-5]\d)([0-5]\d)([,)])`)
	tableNamePat = regexp.MustCompile(
		"(?i)^INSERT INTO (`|\")([\\w-]+)(`|\") VALUES ")
	rowPat = regexp.MustCompile(`^\(.+\)$`)
)

// Pipeline yields rewritten statements from one dump file.
type Pipeline struct {
	scanner           *bufio.Scanner
	filter            bool
	rewriteTimestamps bool
	logger            zerolog.Logger
	dropped           int
}

// New builds the preprocessing pipeline for a SQL dump of the given
// table. The categorylinks table gets the additional timestamp rewrite.
func New(r io.Reader, table string, logger zerolog.Logger) *Pipeline {
	p := newPipeline(r, logger)
	p.filter = true
	p.rewriteTimestamps = table == "categorylinks"
	return p
}

// NewRaw yields the lines of r unmodified. It is used for files that are
// already in PostgreSQL dialect, such as xml2sql output.
func NewRaw(r io.Reader, logger zerolog.Logger) *Pipeline {
	return newPipeline(r, logger)
}

func newPipeline(r io.Reader, logger zerolog.Logger) *Pipeline {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialBuf), maxLineLen)
	return &Pipeline{scanner: sc, logger: logger}
}

// Next returns the next statement. It returns io.EOF once the dump is
// exhausted.
func (p *Pipeline) Next() (string, error) {
	for p.scanner.Scan() {
		line := p.scanner.Bytes()
		if !p.filter {
			return string(line), nil
		}
		if !insertPat.Match(line) {
			continue
		}

		stmt, ok := p.decode(line)
		if !ok {
			continue
		}

		stmt = strings.TrimSpace(stmt)
		stmt = RewriteQuotes(stmt)
		if p.rewriteTimestamps {
			stmt = RewriteTimestamps(stmt)
		}
		return stmt, nil
	}

	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Dropped returns the number of rows discarded for invalid encoding.
func (p *Pipeline) Dropped() int {
	return p.dropped
}

// decode returns the line as a string, salvaging what it can when the
// line is not valid UTF-8. Some wikis carry rows whose text columns are
// not UTF-8 encoded; the affected rows are dropped and the remaining
// rows of the multirow INSERT are re-emitted as one statement.
func (p *Pipeline) decode(line []byte) (string, bool) {
	if utf8.Valid(line) {
		return string(line), true
	}

	m := tableNamePat.FindSubmatch(line)
	if m == nil {
		p.dropped++
		p.logger.Warn().Msg("dropped undecodable line without INSERT INTO prefix")
		return "", false
	}
	quote, table := string(m[1]), string(m[2])

	var kept []string
	for _, row := range SingleRows(line) {
		if !utf8.Valid(row) {
			p.dropped++
			p.logger.Warn().
				Str("table", table).
				Str("row", string(bytes.ToValidUTF8(row, []byte("�")))).
				Msg("dropped row: not UTF-8 encoded")
			continue
		}
		kept = append(kept, string(row))
	}
	if len(kept) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quote)
	b.WriteString(table)
	b.WriteString(quote)
	b.WriteString(" VALUES ")
	b.WriteString(strings.Join(kept, ","))
	b.WriteString(";")
	return b.String(), true
}

// RewriteQuotes replaces MySQL backquote identifier quoting with the
// double quotes PostgreSQL expects.
func RewriteQuotes(s string) string {
	return strings.ReplaceAll(s, "`", `"`)
}

// RewriteTimestamps converts MySQL YYYYMMDDHHMMSS timestamp values into
// quoted ISO 8601 literals.
func RewriteTimestamps(s string) string {
	return timestampPat.ReplaceAllString(s, "$1'$2-$3-${4}T$5:$6:${7}Z'$8")
}

// SingleRows splits a multirow INSERT statement into its value rows.
func SingleRows(stmt []byte) [][]byte {
	stmt = tableNamePat.ReplaceAll(stmt, nil)
	stmt = bytes.TrimSuffix(bytes.TrimSpace(stmt), []byte(";"))
	stmt = bytes.ReplaceAll(stmt, []byte("),("), []byte(")\n("))

	var rows [][]byte
	for _, row := range bytes.Split(stmt, []byte("\n")) {
		if rowPat.Match(row) {
			rows = append(rows, row)
		}
	}
	return rows
}
