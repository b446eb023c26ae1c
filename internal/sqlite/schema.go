// Package sqlite implements the SQLite node store for grove.
package sqlite

// The node table is created from this template with the configured table and
// column names spliced in. Both pass TreeConfig.Validate before they reach
// the template, so the splice cannot inject SQL. %[1]s is the table, %[2]s
// the identity column, %[3]s the parent column.
//
// Roots store NULL in the parent column. The self reference carries no
// cascade action: the delete protocols reparent or remove children
// explicitly, and the constraint turns a protocol bug into an immediate
// error instead of a silently orphaned subtree.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	%[2]s      TEXT PRIMARY KEY,
	%[3]s      TEXT REFERENCES %[1]s(%[2]s),
	attrs      TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	CHECK (%[2]s <> %[3]s)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_%[3]s ON %[1]s(%[3]s);
`

// maxTreeDepth bounds the recursive ancestry queries so that a corrupt
// parent chain cannot spin a CTE forever.
const maxTreeDepth = 1000
