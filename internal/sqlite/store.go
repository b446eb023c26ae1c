// This file implements the relational node store: open/close, row
// hydration, and the Store interface over one adjacency-list table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/grovedb/grove/pkg/types"
)

// Options configures Open.
type Options struct {
	// Path is the database file, created on first open. Empty selects a
	// private in-memory database, which is useful for tests.
	Path string

	// Config supplies the table and column identifiers. The zero value
	// works; defaults are applied and identifiers validated before any
	// SQL is built from them.
	Config types.TreeConfig

	// Logger receives store-level debug records. Stderr text when nil.
	Logger *slog.Logger
}

// Store implements types.Store and types.TreeReader on a single SQLite
// table. The table and column names come from the validated TreeConfig,
// so every query is built once at open time.
type Store struct {
	db  *sql.DB
	cfg types.TreeConfig
	log *slog.Logger
	q   queries

	// tx is non-nil on the scoped copy WithTx hands to its callback.
	// All statements route through conn, which prefers it over db.
	tx *sql.Tx
}

var (
	_ types.Store      = (*Store)(nil)
	_ types.TreeReader = (*Store)(nil)
)

// querier is the subset of sql.DB and sql.Tx the store issues statements
// through.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner abstracts sql.Row and sql.Rows for hydration.
type scanner interface {
	Scan(dest ...any) error
}

// queries holds every statement with the configured identifiers spliced in.
type queries struct {
	get        string
	insert     string
	setParent  string
	getAttrs   string
	setAttrs   string
	del        string
	children   string
	roots      string
	all        string
	subtree    string
	ancestors  string
	isAncestor string
}

// Open opens or creates the database at opts.Path and ensures the node
// table exists. The returned store is safe for concurrent use.
func Open(opts Options) (*Store, error) {
	cfg := opts.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating tree config: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	dsn := "file:" + opts.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	if opts.Path == "" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if opts.Path == "" {
		// A private in-memory database lives and dies with its one
		// connection; a pool would hand each connection its own empty
		// database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	ddl := fmt.Sprintf(schemaTemplate, cfg.Table, cfg.IDColumn, cfg.ParentColumn)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	log.Debug("sqlite store open", "path", opts.Path, "table", cfg.Table)
	return &Store{db: db, cfg: cfg, log: log, q: buildQueries(cfg)}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.tx != nil {
		return errors.New("close inside transaction")
	}
	return s.db.Close()
}

// buildQueries renders every statement for the configured identifiers.
// Identifiers passed Validate, so splicing them is safe.
func buildQueries(cfg types.TreeConfig) queries {
	table, id, parent := cfg.Table, cfg.IDColumn, cfg.ParentColumn
	cols := fmt.Sprintf("%s, %s, attrs, created_at, updated_at", id, parent)
	return queries{
		get:        fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", cols, table, id),
		insert:     fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?)", table, cols),
		setParent:  fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = ? WHERE %s = ?", table, parent, id),
		getAttrs:   fmt.Sprintf("SELECT attrs FROM %s WHERE %s = ?", table, id),
		setAttrs:   fmt.Sprintf("UPDATE %s SET attrs = ?, updated_at = ? WHERE %s = ?", table, id),
		del:        fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, id),
		children:   fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s", cols, table, parent, id),
		roots:      fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NULL ORDER BY %s", cols, table, parent, id),
		all:        fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", cols, table, id),
		subtree:    subtreeQuery(cfg),
		ancestors:  ancestorsQuery(cfg),
		isAncestor: isAncestorQuery(cfg),
	}
}

// conn returns the ambient transaction when inside WithTx, the pooled
// handle otherwise.
func (s *Store) conn() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Get retrieves the node with the given identity.
func (s *Store) Get(ctx context.Context, id string) (types.Node, error) {
	row := s.conn().QueryRowContext(ctx, s.q.get, id)
	n, err := hydrateNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Node{}, types.ErrNotFound
	}
	if err != nil {
		return types.Node{}, fmt.Errorf("reading node %s: %w", id, err)
	}
	return n, nil
}

// Insert stores a new node. Timestamps are assigned here; whatever the
// caller set is overwritten, and the returned node is the row as stored.
func (s *Store) Insert(ctx context.Context, n types.Node) (types.Node, error) {
	if n.ID == "" {
		return types.Node{}, fmt.Errorf("%w: node identity required", types.ErrConstraint)
	}
	attrs, err := encodeAttrs(n.ID, n.Attrs)
	if err != nil {
		return types.Node{}, err
	}
	now, stamp := nowStamp()
	n.CreatedAt = now
	n.UpdatedAt = now
	_, err = s.conn().ExecContext(ctx, s.q.insert, n.ID, nullable(n.Parent), attrs, stamp, stamp)
	if err != nil {
		return types.Node{}, insertError(err, n)
	}
	return n, nil
}

// SetParent rewrites the node's parent reference. An empty parent makes
// the node a root.
func (s *Store) SetParent(ctx context.Context, id, parent string) error {
	_, stamp := nowStamp()
	res, err := s.conn().ExecContext(ctx, s.q.setParent, nullable(parent), stamp, id)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "FOREIGN KEY constraint"):
			return fmt.Errorf("%w: parent %s does not exist", types.ErrConstraint, parent)
		case strings.Contains(msg, "CHECK constraint"):
			return fmt.Errorf("%w: node %s cannot be its own parent", types.ErrConstraint, id)
		}
		return fmt.Errorf("reparenting node %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SetAttrs merges the given values into the node's attributes. The
// read-merge-write runs in one transaction, the ambient one when present.
func (s *Store) SetAttrs(ctx context.Context, id string, attrs map[string]any) error {
	return s.WithTx(ctx, func(tx types.Store) error {
		return tx.(*Store).setAttrsTx(ctx, id, attrs)
	})
}

func (s *Store) setAttrsTx(ctx context.Context, id string, attrs map[string]any) error {
	var raw string
	err := s.conn().QueryRowContext(ctx, s.q.getAttrs, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading attrs of %s: %w", id, err)
	}

	merged := make(map[string]any)
	if raw != "" && raw != "{}" {
		if err := json.Unmarshal([]byte(raw), &merged); err != nil {
			return fmt.Errorf("decoding attrs of %s: %w", id, err)
		}
	}
	for k, v := range attrs {
		merged[k] = v
	}
	encoded, err := encodeAttrs(id, merged)
	if err != nil {
		return err
	}

	_, stamp := nowStamp()
	if _, err := s.conn().ExecContext(ctx, s.q.setAttrs, encoded, stamp, id); err != nil {
		return fmt.Errorf("updating attrs of %s: %w", id, err)
	}
	return nil
}

// Delete removes the node alone. A node that still has children trips the
// parent foreign key, which surfaces as ErrConstraint.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn().ExecContext(ctx, s.q.del, id)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return fmt.Errorf("%w: node %s still has children", types.ErrConstraint, id)
		}
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Children returns the direct children of parent ordered by identity.
// An empty parent selects the roots.
func (s *Store) Children(ctx context.Context, parent string) ([]types.Node, error) {
	var rows *sql.Rows
	var err error
	if parent == "" {
		rows, err = s.conn().QueryContext(ctx, s.q.roots)
	} else {
		rows, err = s.conn().QueryContext(ctx, s.q.children, parent)
	}
	if err != nil {
		return nil, fmt.Errorf("listing children of %q: %w", parent, err)
	}
	return collectNodes(rows)
}

// All returns every node ordered by identity.
func (s *Store) All(ctx context.Context) ([]types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, s.q.all)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	return collectNodes(rows)
}

// WithTx runs fn against a transactional view of the store. A nested call
// reuses the ambient transaction, so protocol steps compose into one
// commit.
func (s *Store) WithTx(ctx context.Context, fn func(tx types.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	scoped := &Store{db: s.db, cfg: s.cfg, log: s.log, q: s.q, tx: tx}
	if err := fn(scoped); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// hydrateNode reads one row into a Node. The parent column is NULL for
// roots and comes back as the empty string.
func hydrateNode(sc scanner) (types.Node, error) {
	var (
		n       types.Node
		parent  sql.NullString
		attrs   string
		created string
		updated string
	)
	if err := sc.Scan(&n.ID, &parent, &attrs, &created, &updated); err != nil {
		return types.Node{}, err
	}
	n.Parent = parent.String

	if attrs != "" && attrs != "{}" {
		if err := json.Unmarshal([]byte(attrs), &n.Attrs); err != nil {
			return types.Node{}, fmt.Errorf("decoding attrs of %s: %w", n.ID, err)
		}
	}

	var err error
	n.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return types.Node{}, fmt.Errorf("parsing created_at of %s: %w", n.ID, err)
	}
	n.UpdatedAt, err = time.Parse(time.RFC3339, updated)
	if err != nil {
		return types.Node{}, fmt.Errorf("parsing updated_at of %s: %w", n.ID, err)
	}
	return n, nil
}

// collectNodes drains rows into a slice, closing them either way.
func collectNodes(rows *sql.Rows) ([]types.Node, error) {
	defer rows.Close()
	nodes := make([]types.Node, 0)
	for rows.Next() {
		n, err := hydrateNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return nodes, nil
}

// encodeAttrs renders attributes as the JSON text the attrs column stores.
func encodeAttrs(id string, attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encoding attrs of %s: %w", id, err)
	}
	return string(raw), nil
}

// insertError translates a failed insert into the shared error taxonomy.
// The driver reports only the constraint class, so the detail comes from
// the node being written.
func insertError(err error, n types.Node) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint"):
		return fmt.Errorf("%w: duplicate identity %s", types.ErrConstraint, n.ID)
	case strings.Contains(msg, "FOREIGN KEY constraint"):
		return fmt.Errorf("%w: parent %s does not exist", types.ErrConstraint, n.Parent)
	case strings.Contains(msg, "CHECK constraint"):
		return fmt.Errorf("%w: node %s cannot be its own parent", types.ErrConstraint, n.ID)
	case strings.Contains(msg, "constraint"):
		return fmt.Errorf("%w: %v", types.ErrConstraint, err)
	}
	return fmt.Errorf("inserting node %s: %w", n.ID, err)
}

// requireRow maps a zero-row write to ErrNotFound.
func requireRow(res sql.Result, id string) error {
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting affected rows for %s: %w", id, err)
	}
	if count == 0 {
		return types.ErrNotFound
	}
	return nil
}

// nullable maps the empty parent reference to NULL so roots satisfy the
// self foreign key.
func nullable(ref string) any {
	if ref == "" {
		return nil
	}
	return ref
}

// nowStamp returns the current time at the second precision the text
// columns store, so a returned node equals its later hydration.
func nowStamp() (time.Time, string) {
	now := time.Now().UTC().Truncate(time.Second)
	return now, now.Format(time.RFC3339)
}
