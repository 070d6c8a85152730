// Package schema holds PostgreSQL definitions for the MediaWiki tables
// that appear in the public Wikipedia dumps.
//
// Tables are created without constraints or indexes; the primary key and
// the secondary indexes are added only after the bulk load has finished.
package schema

import "sort"

// Index is one secondary index of a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table describes one MediaWiki table.
type Table struct {
	Name string
	// Create is the bare CREATE TABLE statement, without primary key or
	// indexes.
	Create string
	// PrimaryKey lists the columns of the primary key constraint. Empty
	// for tables that have none in the MediaWiki schema.
	PrimaryKey []string
	Indexes    []Index
}

var tables = map[string]Table{
	"page": {
		Name: "page",
		Create: `CREATE TABLE page (
  page_id INTEGER NOT NULL,
  page_namespace INTEGER NOT NULL,
  page_title TEXT NOT NULL,
  page_restrictions TEXT,
  page_counter BIGINT NOT NULL DEFAULT 0,
  page_is_redirect SMALLINT NOT NULL DEFAULT 0,
  page_is_new SMALLINT NOT NULL DEFAULT 0,
  page_random DOUBLE PRECISION NOT NULL,
  page_touched TEXT,
  page_latest INTEGER NOT NULL,
  page_len INTEGER NOT NULL
)`,
		PrimaryKey: []string{"page_id"},
		Indexes: []Index{
			{Name: "page_name_title", Columns: []string{"page_namespace", "page_title"}, Unique: true},
			{Name: "page_random_idx", Columns: []string{"page_random"}},
			{Name: "page_len_idx", Columns: []string{"page_len"}},
		},
	},
	"revision": {
		Name: "revision",
		Create: `CREATE TABLE revision (
  rev_id INTEGER NOT NULL,
  rev_page INTEGER NOT NULL,
  rev_text_id INTEGER NOT NULL,
  rev_comment TEXT,
  rev_user INTEGER NOT NULL DEFAULT 0,
  rev_user_text TEXT NOT NULL DEFAULT '',
  rev_timestamp TEXT NOT NULL,
  rev_minor_edit SMALLINT NOT NULL DEFAULT 0,
  rev_deleted SMALLINT NOT NULL DEFAULT 0,
  rev_len INTEGER,
  rev_parent_id INTEGER
)`,
		PrimaryKey: []string{"rev_page", "rev_id"},
		Indexes: []Index{
			{Name: "rev_id_idx", Columns: []string{"rev_id"}, Unique: true},
			{Name: "rev_timestamp_idx", Columns: []string{"rev_timestamp"}},
			{Name: "rev_page_timestamp", Columns: []string{"rev_page", "rev_timestamp"}},
			{Name: "rev_user_timestamp", Columns: []string{"rev_user", "rev_timestamp"}},
		},
	},
	"text": {
		Name: "text",
		Create: `CREATE TABLE text (
  old_id INTEGER NOT NULL,
  old_text TEXT,
  old_flags TEXT
)`,
		PrimaryKey: []string{"old_id"},
	},
	"categorylinks": {
		Name: "categorylinks",
		Create: `CREATE TABLE categorylinks (
  cl_from INTEGER NOT NULL DEFAULT 0,
  cl_to TEXT NOT NULL DEFAULT '',
  cl_sortkey TEXT NOT NULL DEFAULT '',
  cl_timestamp TIMESTAMP NOT NULL
)`,
		PrimaryKey: []string{"cl_from", "cl_to"},
		Indexes: []Index{
			{Name: "cl_sortkey_idx", Columns: []string{"cl_to", "cl_sortkey", "cl_from"}},
			{Name: "cl_timestamp_idx", Columns: []string{"cl_to", "cl_timestamp"}},
		},
	},
	"category": {
		Name: "category",
		Create: `CREATE TABLE category (
  cat_id INTEGER NOT NULL,
  cat_title TEXT NOT NULL,
  cat_pages INTEGER NOT NULL DEFAULT 0,
  cat_subcats INTEGER NOT NULL DEFAULT 0,
  cat_files INTEGER NOT NULL DEFAULT 0,
  cat_hidden SMALLINT NOT NULL DEFAULT 0
)`,
		PrimaryKey: []string{"cat_id"},
		Indexes: []Index{
			{Name: "cat_title_idx", Columns: []string{"cat_title"}, Unique: true},
			{Name: "cat_pages_idx", Columns: []string{"cat_pages"}},
		},
	},
	"langlinks": {
		Name: "langlinks",
		Create: `CREATE TABLE langlinks (
  ll_from INTEGER NOT NULL DEFAULT 0,
  ll_lang TEXT NOT NULL DEFAULT '',
  ll_title TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"ll_from", "ll_lang"},
		Indexes: []Index{
			{Name: "ll_lang_title", Columns: []string{"ll_lang", "ll_title"}},
		},
	},
	"pagelinks": {
		Name: "pagelinks",
		Create: `CREATE TABLE pagelinks (
  pl_from INTEGER NOT NULL DEFAULT 0,
  pl_namespace INTEGER NOT NULL DEFAULT 0,
  pl_title TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"pl_from", "pl_namespace", "pl_title"},
		Indexes: []Index{
			{Name: "pl_namespace_title", Columns: []string{"pl_namespace", "pl_title", "pl_from"}, Unique: true},
		},
	},
	"templatelinks": {
		Name: "templatelinks",
		Create: `CREATE TABLE templatelinks (
  tl_from INTEGER NOT NULL DEFAULT 0,
  tl_namespace INTEGER NOT NULL DEFAULT 0,
  tl_title TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"tl_from", "tl_namespace", "tl_title"},
		Indexes: []Index{
			{Name: "tl_namespace_title", Columns: []string{"tl_namespace", "tl_title", "tl_from"}, Unique: true},
		},
	},
	"imagelinks": {
		Name: "imagelinks",
		Create: `CREATE TABLE imagelinks (
  il_from INTEGER NOT NULL DEFAULT 0,
  il_to TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"il_from", "il_to"},
		Indexes: []Index{
			{Name: "il_to_from", Columns: []string{"il_to", "il_from"}, Unique: true},
		},
	},
	"externallinks": {
		Name: "externallinks",
		Create: `CREATE TABLE externallinks (
  el_from INTEGER NOT NULL DEFAULT 0,
  el_to TEXT NOT NULL,
  el_index TEXT NOT NULL
)`,
		Indexes: []Index{
			{Name: "el_from_idx", Columns: []string{"el_from"}},
		},
	},
	"iwlinks": {
		Name: "iwlinks",
		Create: `CREATE TABLE iwlinks (
  iwl_from INTEGER NOT NULL DEFAULT 0,
  iwl_prefix TEXT NOT NULL DEFAULT '',
  iwl_title TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"iwl_from", "iwl_prefix", "iwl_title"},
	},
	"redirect": {
		Name: "redirect",
		Create: `CREATE TABLE redirect (
  rd_from INTEGER NOT NULL DEFAULT 0,
  rd_namespace INTEGER NOT NULL DEFAULT 0,
  rd_title TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"rd_from"},
		Indexes: []Index{
			{Name: "rd_ns_title", Columns: []string{"rd_namespace", "rd_title", "rd_from"}},
		},
	},
	"image": {
		Name: "image",
		Create: `CREATE TABLE image (
  img_name TEXT NOT NULL DEFAULT '',
  img_size INTEGER NOT NULL DEFAULT 0,
  img_width INTEGER NOT NULL DEFAULT 0,
  img_height INTEGER NOT NULL DEFAULT 0,
  img_metadata TEXT,
  img_bits INTEGER NOT NULL DEFAULT 0,
  img_media_type TEXT,
  img_major_mime TEXT NOT NULL DEFAULT 'unknown',
  img_minor_mime TEXT NOT NULL DEFAULT 'unknown',
  img_description TEXT NOT NULL DEFAULT '',
  img_user INTEGER NOT NULL DEFAULT 0,
  img_user_text TEXT NOT NULL,
  img_timestamp TEXT NOT NULL,
  img_sha1 TEXT NOT NULL DEFAULT ''
)`,
		PrimaryKey: []string{"img_name"},
		Indexes: []Index{
			{Name: "img_timestamp_idx", Columns: []string{"img_timestamp"}},
			{Name: "img_sha1_idx", Columns: []string{"img_sha1"}},
		},
	},
	"page_props": {
		Name: "page_props",
		Create: `CREATE TABLE page_props (
  pp_page INTEGER NOT NULL,
  pp_propname TEXT NOT NULL,
  pp_value TEXT NOT NULL
)`,
		PrimaryKey: []string{"pp_page", "pp_propname"},
	},
}

// Lookup returns the definition of a dump table.
func Lookup(name string) (Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// Names returns the sorted names of all known tables.
func Names() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
