package dag

import "github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"

// Builder builds a dependency graph from a catalog. Production code
// uses DefaultBuilder, which just calls the package-level Build; a
// consumer that only needs to be tested against Builder's contract
// (the API server's dag handlers) can substitute a mock instead of
// standing up a full in-memory catalog.
type Builder interface {
	Build(store *catalog.Store) (*Graph, error)
}

// DefaultBuilder is the production Builder.
type DefaultBuilder struct{}

func (DefaultBuilder) Build(store *catalog.Store) (*Graph, error) {
	return Build(store)
}
