package search

import (
	"context"
)

// Indexer abstracts the search engine so services and tasks do not depend on
// a specific client.
type Indexer interface {
	// SetupMapping creates the index if it is missing and installs the mapping.
	SetupMapping(ctx context.Context) error
	// Index adds or replaces documents.
	Index(ctx context.Context, docs []Document) error
	// Delete removes documents by add-on id. Missing documents are not an error.
	Delete(ctx context.Context, ids []uint64) error
	// Ping checks that the search engine is reachable.
	Ping(ctx context.Context) error
}

// NoopIndexer is used when no search engine is configured.
type NoopIndexer struct{}

func (NoopIndexer) SetupMapping(context.Context) error      { return nil }
func (NoopIndexer) Index(context.Context, []Document) error { return nil }
func (NoopIndexer) Delete(context.Context, []uint64) error  { return nil }
func (NoopIndexer) Ping(context.Context) error              { return nil }
