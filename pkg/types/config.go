package types

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/grovedb/grove/pkg/order"
)

// Traversal orders for reads.
const (
	TraversalDFS = "dfs"
	TraversalBFS = "bfs"
)

// Comparison directions for reads. Empty selects the configured default.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Delete modes. DeleteDefault resolves to the configured default, or
// DeletePharaoh when none is configured.
const (
	DeleteDefault     = ""
	DeletePharaoh     = "pharaoh"
	DeleteGrandmother = "grandmother"
	DeleteMonarchy    = "monarchy"
)

// Default storage identifiers.
const (
	DefaultTable        = "nodes"
	DefaultIDColumn     = "node_id"
	DefaultParentColumn = "parent_id"
)

// Config validation errors.
var (
	ErrIdentifierInvalid = errors.New("invalid identifier")
	ErrOrderKindUnknown  = errors.New("unknown ordering kind")
	ErrTraversalUnknown  = errors.New("unknown traversal order")
	ErrDirectionUnknown  = errors.New("unknown direction")
	ErrDeleteModeUnknown = errors.New("unknown delete mode")
)

// validDeleteModes is the set of recognized delete mode values.
var validDeleteModes = map[string]bool{
	DeleteDefault:     true,
	DeletePharaoh:     true,
	DeleteGrandmother: true,
	DeleteMonarchy:    true,
}

// identPattern matches identifiers safe to splice into SQL as table or
// column names. Everything else is rejected at validation time.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OrderField names one node attribute used as a sibling ordering seed,
// together with the kind its values are coerced to before encoding.
type OrderField struct {
	Name string     `json:"name" yaml:"name" mapstructure:"name"`
	Kind order.Kind `json:"kind" yaml:"kind" mapstructure:"kind"`
}

// TreeConfig is the explicit configuration record handed to the traversal
// engine, the mutation protocol, and the relational store at construction
// time. The zero value is usable: WithDefaults fills storage identifiers,
// ordering falls back to node identity, traversal to depth-first, and
// deletion to pharaoh.
type TreeConfig struct {
	Table        string       `json:"table" yaml:"table" mapstructure:"table"`
	IDColumn     string       `json:"id_column" yaml:"id_column" mapstructure:"id_column"`
	ParentColumn string       `json:"parent_column" yaml:"parent_column" mapstructure:"parent_column"`
	OrderBy      []OrderField `json:"order_by" yaml:"order_by" mapstructure:"order_by"`
	Traversal    string       `json:"traversal" yaml:"traversal" mapstructure:"traversal"`
	Descending   bool         `json:"descending" yaml:"descending" mapstructure:"descending"`
	DeleteMode   string       `json:"delete_mode" yaml:"delete_mode" mapstructure:"delete_mode"`
}

// WithDefaults returns a copy of the config with empty fields replaced by
// their defaults.
func (c TreeConfig) WithDefaults() TreeConfig {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.IDColumn == "" {
		c.IDColumn = DefaultIDColumn
	}
	if c.ParentColumn == "" {
		c.ParentColumn = DefaultParentColumn
	}
	if c.Traversal == "" {
		c.Traversal = TraversalDFS
	}
	if c.DeleteMode == "" {
		c.DeleteMode = DeletePharaoh
	}
	return c
}

// Validate checks that the config is well-formed. It returns a sentinel
// error from this package on failure, wrapped with the offending value.
func (c TreeConfig) Validate() error {
	for _, ident := range []string{c.Table, c.IDColumn, c.ParentColumn} {
		if ident != "" && !identPattern.MatchString(ident) {
			return fmt.Errorf("%w: %q", ErrIdentifierInvalid, ident)
		}
	}
	for _, f := range c.OrderBy {
		if !identPattern.MatchString(f.Name) {
			return fmt.Errorf("%w: ordering field %q", ErrIdentifierInvalid, f.Name)
		}
		if !order.ValidKind(f.Kind) {
			return fmt.Errorf("%w: %q for field %q", ErrOrderKindUnknown, f.Kind, f.Name)
		}
	}
	switch c.Traversal {
	case "", TraversalDFS, TraversalBFS:
	default:
		return fmt.Errorf("%w: %q", ErrTraversalUnknown, c.Traversal)
	}
	if !validDeleteModes[c.DeleteMode] {
		return fmt.Errorf("%w: %q", ErrDeleteModeUnknown, c.DeleteMode)
	}
	return nil
}

// Kinds returns the ordering field kinds in declaration order.
func (c TreeConfig) Kinds() []order.Kind {
	kinds := make([]order.Kind, len(c.OrderBy))
	for i, f := range c.OrderBy {
		kinds[i] = f.Kind
	}
	return kinds
}

// Seed extracts the node's ordering seed values in field declaration order.
// A missing attribute contributes nil, which sorts first.
func (c TreeConfig) Seed(n Node) []any {
	seed := make([]any, len(c.OrderBy))
	for i, f := range c.OrderBy {
		seed[i] = n.Attrs[f.Name]
	}
	return seed
}
