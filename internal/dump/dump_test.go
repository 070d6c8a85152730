package dump

import (
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

var testPattern = regexp.MustCompile(
	`^(?P<language>[a-z_]+)wiki-(?P<date>\d{8})-(?P<table>[\w-]+?)\.(sql|xml)(\.(gz|bz2))?$`)

func TestParseInfo(t *testing.T) {
	testCases := []struct {
		path string
		want Info
	}{
		{
			"download/de/20091023/dewiki-20091023-redirect.sql.gz",
			Info{
				Path:     "download/de/20091023/dewiki-20091023-redirect.sql.gz",
				Filename: "dewiki-20091023-redirect.sql.gz",
				Language: "de",
				Date:     "20091023",
				Table:    "redirect",
			},
		},
		{
			"enwiki-20091017-pages-articles.xml.bz2",
			Info{
				Path:     "enwiki-20091017-pages-articles.xml.bz2",
				Filename: "enwiki-20091017-pages-articles.xml.bz2",
				Language: "en",
				Date:     "20091017",
				Table:    "pages-articles",
			},
		},
	}

	for _, tc := range testCases {
		got, err := ParseInfo(tc.path, testPattern)
		if err != nil {
			t.Errorf("ParseInfo(%q): %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInfo(%q) = %+v, want %+v", tc.path, got, tc.want)
		}
	}

	if _, err := ParseInfo("README.txt", testPattern); err == nil {
		t.Error("expected error for non-dump filename")
	}
}

func TestPagesArticles(t *testing.T) {
	pa := Info{Table: "pages-articles"}
	if !pa.PagesArticles() {
		t.Error("pages-articles dump not recognised")
	}
	sql := Info{Table: "pagelinks"}
	if sql.PagesArticles() {
		t.Error("pagelinks dump misclassified as pages-articles")
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"de/20091023/dewiki-20091023-categorylinks.sql.gz",
		"de/20091023/dewiki-20091023-redirect.sql.gz",
		"en/20091017/enwiki-20091017-langlinks.sql.gz",
		"en/20091017/md5sums.txt",
		"zh/20091023/zhwiki-20091023-pagelinks.sql.gz",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// A directory, a nested directory and a direct file path, with the
	// direct file also reachable through the directory walk.
	infos, err := Discover(testPattern,
		root,
		filepath.Join(root, "en"),
		filepath.Join(root, "de/20091023/dewiki-20091023-redirect.sql.gz"),
	)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, info := range infos {
		got = append(got, info.Filename)
	}
	want := []string{
		"dewiki-20091023-categorylinks.sql.gz",
		"dewiki-20091023-redirect.sql.gz",
		"enwiki-20091017-langlinks.sql.gz",
		"zhwiki-20091023-pagelinks.sql.gz",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := Discover(testPattern, filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want a not-exist error", err)
	}
}

func TestGroupByLanguage(t *testing.T) {
	infos := []Info{
		{Language: "de", Table: "categorylinks"},
		{Language: "de", Table: "redirect"},
		{Language: "en", Table: "langlinks"},
		{Language: "zh", Table: "pagelinks"},
	}
	groups := GroupByLanguage(infos)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Language != "de" || len(groups[0].Dumps) != 2 {
		t.Errorf("unexpected first group %+v", groups[0])
	}
	if groups[1].Language != "en" || groups[2].Language != "zh" {
		t.Errorf("groups out of order: %v %v", groups[1].Language, groups[2].Language)
	}
}

func TestOpenCompressed(t *testing.T) {
	dir := t.TempDir()
	content := "INSERT INTO `redirect` VALUES (1,0,'Foo');\n"

	plain := filepath.Join(dir, "dump.sql")
	if err := os.WriteFile(plain, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	gz := filepath.Join(dir, "dump.sql.gz")
	f, err := os.Create(gz)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, gz} {
		rc, err := OpenCompressed(path)
		if err != nil {
			t.Errorf("OpenCompressed(%q): %v", path, err)
			continue
		}
		got, err := io.ReadAll(rc)
		if err != nil {
			t.Errorf("read %q: %v", path, err)
		}
		if string(got) != content {
			t.Errorf("read %q = %q, want %q", path, got, content)
		}
		if err := rc.Close(); err != nil {
			t.Errorf("close %q: %v", path, err)
		}
	}
}
