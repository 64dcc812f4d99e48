package graph

import (
	"context"
	"io"
)

// Store is the interface for the domain graph backend.
// Implementations: KuzuStore (production), MemStore (testing, default).
// Getters return nil (not an error) when the requested entity does not exist.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Owners must be added before the elements they own.
	AddResource(ctx context.Context, res Resource) error
	AddElement(ctx context.Context, elem Element) error
	AddRepresentation(ctx context.Context, rep Representation) error

	// Read operations.
	GetResource(ctx context.Context, path string) (*Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	GetElement(ctx context.Context, id string) (*Element, error)
	GetRepresentation(ctx context.Context, id string) (*Representation, error)

	// Containment traversal, ordered by Element.Position.
	Contents(ctx context.Context, ownerID string) ([]Element, error)
	ResourceContents(ctx context.Context, path string) ([]Element, error)

	// Representation lookup by target element.
	RepresentationsByTarget(ctx context.Context, targetID string) ([]Representation, error)
	HasRepresentations(ctx context.Context, targetID string) (bool, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}
