package explorer

import (
	"context"
	"path"
	"sort"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// Compile-time interface checks.
var (
	_ ObjectService       = (*StoreServices)(nil)
	_ RepresentationIndex = (*StoreServices)(nil)
	_ ReadOnlyPolicy      = (*StoreServices)(nil)
)

// StoreServices implements the explorer's service interfaces on top of a
// graph.Store. A resource is read-only when its own flag is set or when its
// path matches one of the configured patterns (path.Match syntax).
type StoreServices struct {
	store            graph.Store
	readOnlyPatterns []string
}

// NewStoreServices returns services that read from store.
func NewStoreServices(store graph.Store, readOnlyPatterns []string) *StoreServices {
	return &StoreServices{store: store, readOnlyPatterns: readOnlyPatterns}
}

func (s *StoreServices) ID(obj graph.Element) string { return obj.ID }

// Label returns the element name. Unnamed elements are labeled by kind.
func (s *StoreServices) Label(obj graph.Element) string {
	if obj.Name != "" {
		return obj.Name
	}
	return string(obj.Kind)
}

func (s *StoreServices) Kind(obj graph.Element) string { return "model::" + string(obj.Kind) }

func (s *StoreServices) Icons(obj graph.Element) []string {
	icons := []string{"icons/" + string(obj.Kind) + ".svg"}
	if obj.Abstract != nil && *obj.Abstract {
		icons = append(icons, "icons/overlays/abstract.svg")
	}
	if obj.Static != nil && *obj.Static {
		icons = append(icons, "icons/overlays/static.svg")
	}
	return icons
}

func (s *StoreServices) Contents(ctx context.Context, obj graph.Element) ([]graph.Element, error) {
	return s.store.Contents(ctx, obj.ID)
}

func (s *StoreServices) Resolve(ctx context.Context, id string) (*graph.Element, error) {
	if id == "" {
		return nil, nil
	}
	return s.store.GetElement(ctx, id)
}

func (s *StoreServices) Resources(ctx context.Context) ([]graph.Resource, error) {
	return s.store.ListResources(ctx)
}

func (s *StoreServices) Resource(ctx context.Context, p string) (*graph.Resource, error) {
	if p == "" {
		return nil, nil
	}
	return s.store.GetResource(ctx, p)
}

func (s *StoreServices) ResourceContents(ctx context.Context, p string) ([]graph.Element, error) {
	return s.store.ResourceContents(ctx, p)
}

func (s *StoreServices) ByTarget(ctx context.Context, targetID string) ([]graph.Representation, error) {
	reps, err := s.store.RepresentationsByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reps, func(i, j int) bool { return reps[i].Label < reps[j].Label })
	return reps, nil
}

func (s *StoreServices) ExistsByTarget(ctx context.Context, targetID string) (bool, error) {
	return s.store.HasRepresentations(ctx, targetID)
}

func (s *StoreServices) ByID(ctx context.Context, id string) (*graph.Representation, error) {
	if id == "" {
		return nil, nil
	}
	return s.store.GetRepresentation(ctx, id)
}

func (s *StoreServices) IsReadOnly(_ context.Context, res graph.Resource) bool {
	if res.ReadOnly {
		return true
	}
	for _, pattern := range s.readOnlyPatterns {
		if ok, err := path.Match(pattern, res.Path); err == nil && ok {
			return true
		}
	}
	return false
}
