package pgimport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

// statementSource yields SQL statements one at a time, ending with io.EOF.
type statementSource interface {
	Next() (string, error)
}

// psqlPipe streams statements into a psql child process connected to the
// given database. psql does the heavy lifting of the bulk load, exactly
// one statement per line.
func (imp *Importer) psqlPipe(ctx context.Context, dbName, table string, stmts statementSource) error {
	cmd := exec.CommandContext(ctx, "psql",
		"--quiet",
		"--host="+imp.opts.Host,
		"--port="+imp.opts.Port,
		"--username="+imp.opts.User,
		"--no-password",
		"--dbname="+dbName,
	)
	if imp.opts.Password != "" {
		cmd.Env = append(cmd.Environ(), "PGPASSWORD="+imp.opts.Password)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.WithMessage(err, "open psql stdin")
	}
	errBuf := &bytes.Buffer{}
	cmd.Stderr = errBuf

	if err := cmd.Start(); err != nil {
		return errors.WithMessage(err, "start psql")
	}

	imp.logger.Info().
		Str("database", dbName).
		Str("table", table).
		Int("pid", cmd.Process.Pid).
		Msg("importing data")

	writeErr := writeStatements(stdin, stmts)
	if err := stdin.Close(); err != nil && writeErr == nil {
		writeErr = errors.WithMessage(err, "close psql stdin")
	}

	waitErr := cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()
	imp.logger.Info().Int("pid", cmd.Process.Pid).Int("exit", exitCode).Msg("psql exited")

	if writeErr != nil {
		return writeErr
	}
	if waitErr != nil {
		return errors.WithMessagef(waitErr, "psql: %s", bytes.TrimSpace(errBuf.Bytes()))
	}
	return nil
}

func writeStatements(w io.WriteCloser, stmts statementSource) error {
	bw := bufio.NewWriter(w)
	for {
		stmt, err := stmts.Next()
		if err == io.EOF {
			return errors.WithMessage(bw.Flush(), "flush statements")
		}
		if err != nil {
			return errors.WithMessage(err, "read statements")
		}
		if _, err := bw.WriteString(stmt); err != nil {
			return errors.WithMessage(err, "write statement")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.WithMessage(err, "write statement")
		}
	}
}
