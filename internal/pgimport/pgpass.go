package pgimport

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// ErrNoPgpassMatch is returned when the passfile holds no credentials for
// the requested connection.
var ErrNoPgpassMatch = errors.New("no matching credentials in passfile")

type pgpassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (e pgpassEntry) matches(host, port, user string) bool {
	return (e.User == user || e.User == "*") &&
		(e.Host == host || e.Host == "*") &&
		(e.Port == port || e.Port == "*") &&
		(e.Database == "postgres" || e.Database == "*")
}

// DefaultPassfile returns the conventional ~/.pgpass location.
func DefaultPassfile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.WithMessage(err, "resolve home directory")
	}
	return filepath.Join(home, ".pgpass"), nil
}

// PasswordFromPgpass resolves the password for the maintenance database
// from a ~/.pgpass style file. The first matching line wins; host, port,
// user and database fields may be the "*" wildcard.
func PasswordFromPgpass(path, host, port, user string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithMessagef(err, "open passfile %s", path)
	}
	defer f.Close()

	entries, err := parsePgpass(f)
	if err != nil {
		return "", errors.WithMessagef(err, "parse passfile %s", path)
	}

	for _, e := range entries {
		if e.matches(host, port, user) {
			return e.Password, nil
		}
	}
	return "", ErrNoPgpassMatch
}

// parsePgpass reads host:port:database:user:password lines. Blank lines
// and #-comments are skipped.
func parsePgpass(r io.Reader) ([]pgpassEntry, error) {
	var entries []pgpassEntry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.SplitN(text, ":", 5)
		if len(fields) != 5 {
			return nil, errors.Errorf("line %d: expected host:port:database:user:password", line)
		}
		entries = append(entries, pgpassEntry{
			Host:     fields[0],
			Port:     fields[1],
			Database: fields[2],
			User:     fields[3],
			Password: fields[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
