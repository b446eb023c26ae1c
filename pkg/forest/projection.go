package forest

import (
	"context"

	"github.com/grovedb/grove/pkg/order"
)

// Projection selects which derived columns a traversal should return. Rows
// always carry the node identity; depth, path, and ordering are included
// only on request.
type Projection struct {
	Offset    string
	Traversal string
	Direction string

	WithDepth bool
	WithPath  bool
	WithOrder bool
}

// ProjectionRow is one traversal result with only the requested columns
// populated.
type ProjectionRow struct {
	ID    string         `json:"id"`
	Depth int            `json:"depth,omitempty"`
	Path  []string       `json:"path,omitempty"`
	Order order.Ordering `json:"order,omitempty"`
}

// Project runs a traversal and strips the result down to the requested
// columns. Row order is the walk order regardless of which columns are
// kept.
func (f *Forest) Project(ctx context.Context, p Projection) ([]ProjectionRow, error) {
	walked, err := f.Walk(ctx, WalkOptions{
		Offset:    p.Offset,
		Traversal: p.Traversal,
		Direction: p.Direction,
	})
	if err != nil {
		return nil, err
	}
	rows := make([]ProjectionRow, len(walked))
	for i, tn := range walked {
		rows[i].ID = tn.ID
		if p.WithDepth {
			rows[i].Depth = tn.Depth
		}
		if p.WithPath {
			rows[i].Path = tn.Path
		}
		if p.WithOrder {
			rows[i].Order = tn.Order
		}
	}
	return rows, nil
}
