package pgimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func writePassfile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgpass")
	body := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParsePgpass(t *testing.T) {
	entries, err := parsePgpass(strings.NewReader(
		"# maintenance credentials\n" +
			"*:*:*:*:sesame\n" +
			"\n" +
			"dbhost:5432:postgres:wikipedia:secret\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	want := pgpassEntry{Host: "*", Port: "*", Database: "*", User: "*", Password: "sesame"}
	if entries[0] != want {
		t.Errorf("got %+v, want %+v", entries[0], want)
	}
	want = pgpassEntry{Host: "dbhost", Port: "5432", Database: "postgres", User: "wikipedia", Password: "secret"}
	if entries[1] != want {
		t.Errorf("got %+v, want %+v", entries[1], want)
	}
}

func TestParsePgpassRejectsShortLines(t *testing.T) {
	_, err := parsePgpass(strings.NewReader("host:5432:postgres:user\n"))
	if err == nil {
		t.Fatal("expected error for a four-field line")
	}
}

func TestPasswordFromPgpass(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			"wildcard line",
			[]string{"*:*:*:*:sesame"},
			"sesame",
		},
		{
			"exact line",
			[]string{"dbhost:5432:postgres:wikipedia:secret"},
			"secret",
		},
		{
			"first match wins",
			[]string{
				"otherhost:5432:postgres:someone:nope",
				"dbhost:5432:postgres:wikipedia:secret",
				"*:*:*:*:fallback",
			},
			"secret",
		},
		{
			"non-postgres database skipped",
			[]string{
				"dbhost:5432:wp_de_20091023:wikipedia:tablepass",
				"*:*:postgres:*:adminpass",
			},
			"adminpass",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePassfile(t, tc.lines...)
			got, err := PasswordFromPgpass(path, "dbhost", "5432", "wikipedia")
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPasswordFromPgpassNoMatch(t *testing.T) {
	path := writePassfile(t, "otherhost:5432:postgres:someone:nope")
	_, err := PasswordFromPgpass(path, "dbhost", "5432", "wikipedia")
	if !errors.Is(err, ErrNoPgpassMatch) {
		t.Errorf("got %v, want ErrNoPgpassMatch", err)
	}
}

func TestPasswordFromPgpassMissingFile(t *testing.T) {
	_, err := PasswordFromPgpass(filepath.Join(t.TempDir(), "absent"), "h", "5432", "u")
	if err == nil {
		t.Fatal("expected error for missing passfile")
	}
}
