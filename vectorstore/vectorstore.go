// Package vectorstore defines the adapter boundary a vector database sits
// behind: collection lifecycle, point upsert, and filtered similarity
// search (§4.6). Concrete back-ends (e.g. Qdrant) live in vectorstore/*
// submodules so the root module never imports a database driver directly.
package vectorstore

import (
	"context"

	"github.com/orcarun/orca"
)

// Point is one vector plus its payload, addressed by ID.
type Point struct {
	ID      string
	Vector  orca.Embedding
	Payload map[string]any
}

// Condition is a single equality filter on a payload field. Match is
// restricted to bool, int, int64, and string; any other type is rejected by
// NewCondition with ErrUnsupportedMatchValue rather than accepted and
// silently mishandled by a back-end (§4.6, §7).
type Condition struct {
	Key   string
	Match any
}

// NewCondition validates match's type before building a Condition.
func NewCondition(key string, match any) (Condition, error) {
	switch match.(type) {
	case bool, int, int64, string:
		return Condition{Key: key, Match: match}, nil
	default:
		return Condition{}, orca.ErrUnsupportedMatchValue
	}
}

// Filter is a conjunction of Conditions a Search result's payload must
// satisfy.
type Filter struct {
	Must []Condition
}

// SearchResult is one ranked match from Search.
type SearchResult struct {
	Point Point
	Score float32
}

// Store is the vector database boundary: create/delete a collection, add
// points to it, and run a filtered similarity search.
type Store interface {
	CreateCollection(ctx context.Context, name string, dimension int) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, point Point) error
	UpsertMany(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, query orca.Embedding, limit int, filter *Filter) ([]SearchResult, error)
}
