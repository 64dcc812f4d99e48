package graph

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	resources map[string]Resource
	resOrder  []string // resource paths in insertion order
	elements  map[string]Element
	owned     map[string][]string // owner id -> child ids
	topLevel  map[string][]string // resource path -> top-level element ids
	reps      map[string]Representation
	byTarget  map[string][]string // target id -> representation ids
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		resources: make(map[string]Resource),
		elements:  make(map[string]Element),
		owned:     make(map[string][]string),
		topLevel:  make(map[string][]string),
		reps:      make(map[string]Representation),
		byTarget:  make(map[string][]string),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddResource stores a resource keyed by its path. Re-adding a path replaces
// its metadata but keeps its contents.
func (m *MemStore) AddResource(_ context.Context, res Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[res.Path]; !ok {
		m.resOrder = append(m.resOrder, res.Path)
	}
	m.resources[res.Path] = res
	return nil
}

// AddElement stores an element and links it under its owner, or under its
// resource when it has no owner.
func (m *MemStore) AddElement(_ context.Context, elem Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.elements[elem.ID]; !exists {
		if elem.OwnerID != "" {
			m.owned[elem.OwnerID] = append(m.owned[elem.OwnerID], elem.ID)
		} else {
			m.topLevel[elem.Resource] = append(m.topLevel[elem.Resource], elem.ID)
		}
	}
	elem.Tags = append([]string(nil), elem.Tags...)
	m.elements[elem.ID] = elem
	return nil
}

// AddRepresentation stores a representation and indexes it by target.
func (m *MemStore) AddRepresentation(_ context.Context, rep Representation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reps[rep.ID]; !exists {
		m.byTarget[rep.TargetID] = append(m.byTarget[rep.TargetID], rep.ID)
	}
	m.reps[rep.ID] = rep
	return nil
}

// GetResource returns the resource at path, or nil if not found.
func (m *MemStore) GetResource(_ context.Context, path string) (*Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[path]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListResources returns all resources in insertion order.
func (m *MemStore) ListResources(_ context.Context) ([]Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Resource, 0, len(m.resOrder))
	for _, p := range m.resOrder {
		out = append(out, m.resources[p])
	}
	return out, nil
}

// GetElement returns the element with the given id, or nil if not found.
func (m *MemStore) GetElement(_ context.Context, id string) (*Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.elements[id]
	if !ok {
		return nil, nil
	}
	e.Tags = append([]string(nil), e.Tags...)
	return &e, nil
}

// GetRepresentation returns the representation with the given id, or nil.
func (m *MemStore) GetRepresentation(_ context.Context, id string) (*Representation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reps[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Contents returns the elements owned by ownerID, ordered by position.
func (m *MemStore) Contents(_ context.Context, ownerID string) ([]Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.owned[ownerID]), nil
}

// ResourceContents returns the top-level elements of a resource.
func (m *MemStore) ResourceContents(_ context.Context, path string) ([]Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(m.topLevel[path]), nil
}

// collect copies the elements for ids and orders them by position.
// Callers must hold at least a read lock.
func (m *MemStore) collect(ids []string) []Element {
	out := make([]Element, 0, len(ids))
	for _, id := range ids {
		e := m.elements[id]
		e.Tags = append([]string(nil), e.Tags...)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// RepresentationsByTarget returns the representations attached to targetID
// in insertion order.
func (m *MemStore) RepresentationsByTarget(_ context.Context, targetID string) ([]Representation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byTarget[targetID]
	out := make([]Representation, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.reps[id])
	}
	return out, nil
}

// HasRepresentations reports whether at least one representation targets targetID.
func (m *MemStore) HasRepresentations(_ context.Context, targetID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byTarget[targetID]) > 0, nil
}

// Stats returns counts of resources, elements, representations and imports.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	imports := 0
	for _, e := range m.elements {
		if e.Kind.IsImport() {
			imports++
		}
	}
	return &GraphStats{
		ResourceCount:       len(m.resources),
		ElementCount:        len(m.elements),
		RepresentationCount: len(m.reps),
		ImportCount:         imports,
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
