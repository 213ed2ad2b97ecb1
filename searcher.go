package pagex

import "context"

// Finder defines the core page retrieval and navigation interface.
type Finder interface {
	// Rank scores the query against every page and returns the ranked,
	// thresholded matches.
	Rank(ctx context.Context, query string, opts ...RankOption) (*Results, error)

	// Adjacent returns the identifier next to id in the given direction.
	// The boolean is false when id is unknown or at the edge of the corpus.
	Adjacent(ctx context.Context, id string, dir Direction) (string, bool)
}

// RankerFunc is a function type that ranks a query.
// This allows using a function where only ranking is needed, similar to http.HandlerFunc.
type RankerFunc func(context.Context, string, ...RankOption) (*Results, error)

// Rank calls f.
func (f RankerFunc) Rank(ctx context.Context, query string, opts ...RankOption) (*Results, error) {
	return f(ctx, query, opts...)
}
