// Package search fans a requirement out to every configured listing source
// and normalizes the results.
package search

import (
	"context"

	"github.com/sells-group/homematch/internal/model"
)

// Query is the normalized filter set passed to every source. Zero values mean
// unconstrained.
type Query struct {
	Location string
	MaxPrice int
	MinBeds  int
	MinBaths int
	MinSqft  int
}

// Source searches one listing provider. Implementations return canonical
// listings; raw payload coercion stays inside the adapter.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]model.Listing, error)
}

func queryFor(req *model.Requirement, location string) Query {
	return Query{
		Location: location,
		MaxPrice: int(req.BudgetMax),
		MinBeds:  req.MinBeds,
		MinBaths: req.MinBaths,
		MinSqft:  req.MinSqft,
	}
}
