package pgimport

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/JoKnopp/wp-import/internal/dump"
)

// pagesArticlesTables are the tables xml2sql produces, in import order:
// page rows reference revisions, revisions reference text, so loading in
// this order keeps a partially failed import easy to reason about.
var pagesArticlesTables = []string{"page", "revision", "text"}

// convertPagesArticles feeds the decompressed pages-articles XML dump
// through xml2sql and returns the per-table paths of the generated SQL
// files. The caller removes the returned directory when done.
func (imp *Importer) convertPagesArticles(ctx context.Context, info dump.Info) (outDir string, files map[string]string, err error) {
	dir := filepath.Join(filepath.Dir(info.Path), "xml2sql-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", nil, errors.WithMessage(err, "create xml2sql output directory")
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	rc, err := dump.OpenCompressed(info.Path)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	cmd := exec.CommandContext(ctx, "xml2sql",
		"--postgresql=8.4",
		"--output-dir="+dir,
	)
	cmd.Stdin = rc
	errBuf := &bytes.Buffer{}
	cmd.Stderr = errBuf

	imp.logger.Info().Str("dump", info.Filename).Msg("converting pages-articles dump")
	if err := cmd.Start(); err != nil {
		return "", nil, errors.WithMessage(err, "start xml2sql")
	}

	waitErr := cmd.Wait()
	imp.logger.Info().
		Int("pid", cmd.Process.Pid).
		Int("exit", cmd.ProcessState.ExitCode()).
		Msg("xml2sql exited")
	if waitErr != nil {
		return "", nil, errors.WithMessagef(waitErr, "xml2sql: %s", bytes.TrimSpace(errBuf.Bytes()))
	}

	files = make(map[string]string, len(pagesArticlesTables))
	for _, table := range pagesArticlesTables {
		path := filepath.Join(dir, table+".sql")
		if _, err := os.Stat(path); err != nil {
			return "", nil, errors.WithMessagef(err, "xml2sql produced no %s.sql", table)
		}
		files[table] = path
	}
	return dir, files, nil
}
