// Package dump locates Wikipedia dump files on disk and extracts the
// metadata encoded in their filenames.
package dump

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

// Info describes a single dump file. Language, Date and Table are taken
// from the named groups of the dump filename pattern.
type Info struct {
	Path     string
	Filename string
	Language string
	Date     string
	Table    string
}

// PagesArticles reports whether the dump is a pages-articles XML dump
// rather than a single-table SQL dump.
func (i Info) PagesArticles() bool {
	return i.Table == "pages-articles"
}

// ParseInfo builds an Info from a dump file path. The pattern must define
// the named groups "language", "date" and "table".
func ParseInfo(path string, pat *regexp.Regexp) (Info, error) {
	filename := filepath.Base(path)
	m := pat.FindStringSubmatch(filename)
	if m == nil {
		return Info{}, errors.Errorf("%s does not match the dump file pattern", filename)
	}
	return Info{
		Path:     path,
		Filename: filename,
		Language: m[pat.SubexpIndex("language")],
		Date:     m[pat.SubexpIndex("date")],
		Table:    m[pat.SubexpIndex("table")],
	}, nil
}

// Discover walks the given paths and returns an Info for every file whose
// basename matches the pattern. A path that is itself a file is considered
// directly. The result is free of duplicates and sorted by path.
func Discover(pat *regexp.Regexp, paths ...string) ([]Info, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, errors.WithMessage(err, "stat dump path")
		}
		if !fi.IsDir() {
			if !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "walk %s", root)
		}
	}

	sort.Strings(files)

	var infos []Info
	for _, path := range files {
		if !pat.MatchString(filepath.Base(path)) {
			continue
		}
		info, err := ParseInfo(path, pat)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Group is the set of dumps belonging to one wiki language.
type Group struct {
	Language string
	Dumps    []Info
}

// GroupByLanguage splits dumps into per-language groups. Groups are
// ordered by language, dumps within a group keep their order.
func GroupByLanguage(infos []Info) []Group {
	byLang := make(map[string][]Info)
	for _, info := range infos {
		byLang[info.Language] = append(byLang[info.Language], info)
	}

	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	groups := make([]Group, 0, len(langs))
	for _, lang := range langs {
		groups = append(groups, Group{Language: lang, Dumps: byLang[lang]})
	}
	return groups
}
