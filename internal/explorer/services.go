package explorer

import (
	"context"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// ObjectService introspects real domain objects. The explorer never reads
// the graph any other way, and never writes to it.
type ObjectService interface {
	ID(obj graph.Element) string
	Label(obj graph.Element) string
	Kind(obj graph.Element) string
	Icons(obj graph.Element) []string

	// Contents returns the containment children of obj in model order.
	Contents(ctx context.Context, obj graph.Element) ([]graph.Element, error)
	// Resolve returns the element with the given id, or nil.
	Resolve(ctx context.Context, id string) (*graph.Element, error)

	// Resources lists the loaded resources; Resource returns one by path, or nil.
	Resources(ctx context.Context) ([]graph.Resource, error)
	Resource(ctx context.Context, path string) (*graph.Resource, error)
	// ResourceContents returns the top-level elements of a resource.
	ResourceContents(ctx context.Context, path string) ([]graph.Element, error)
}

// RepresentationIndex finds the representations attached to elements.
type RepresentationIndex interface {
	// ByTarget returns the representations of targetID sorted by label.
	ByTarget(ctx context.Context, targetID string) ([]graph.Representation, error)
	ExistsByTarget(ctx context.Context, targetID string) (bool, error)
	// ByID returns the representation with the given id, or nil.
	ByID(ctx context.Context, id string) (*graph.Representation, error)
}

// ReadOnlyPolicy decides which resources the explorer offers to edit.
type ReadOnlyPolicy interface {
	IsReadOnly(ctx context.Context, res graph.Resource) bool
}
