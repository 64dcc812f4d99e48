// Package explorer turns the domain graph into a lazily expanded tree.
//
// Every tree node is one of five variants. Three are backed by stored data
// (resources, elements, representations); the other two are synthesized on
// demand and are fully described by their id, so the client can hand back an
// id after a reload and get the same node again:
//
//   - ImportedElementProjection re-presents an element reached through an
//     import statement without copying the imported subtree.
//   - AttributeTypeGroup buckets a classifier's attributes by type.
//
// Nodes are values built per request. Nothing is cached between requests;
// the client-supplied expanded-id set bounds how much of the tree is computed.
package explorer

import "github.com/dusk-indust/modelexplorer/internal/graph"

// Node is a tree node. The set of implementations is closed: the five types
// below are the only ones, and operations over nodes are written as Visitor
// implementations so that a missing variant is a compile error.
type Node interface {
	isNode()
}

// ResourceRoot is a model resource shown at the top of the tree.
type ResourceRoot struct {
	Path     string `json:"path"`
	Label    string `json:"label"`
	ReadOnly bool   `json:"readOnly,omitempty"`
}

// SemanticElement is a real element of the domain graph.
type SemanticElement struct {
	Object   graph.Element `json:"object"`
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Kind     string        `json:"kind"`
	Icons    []string      `json:"icons,omitempty"`
	Static   *bool         `json:"static,omitempty"`   // nil when the kind has no static flag
	Abstract *bool         `json:"abstract,omitempty"` // nil when the kind has no abstract flag
	Tags     []string      `json:"tags,omitempty"`
}

// RepresentationRecord is a view attached to an element.
type RepresentationRecord struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	TargetID string `json:"targetId"`
}

// ImportedElementProjection shows Element as seen through the import
// statement ImportID. Element is always a real element, never another
// projection; Hash keeps projections of the same element reached along
// different paths apart.
type ImportedElementProjection struct {
	Element  SemanticElement `json:"element"`
	ImportID string          `json:"importId"`
	Hash     string          `json:"hash"`
}

// AttributeTypeGroup groups the attributes of Classifier typed by Type.
// A nil Type is the group of untyped attributes. Members are computed on
// demand by the resolver. A group shown under a projection carries the
// projection's ImportID and a Hash of its own; its members are then shown
// as projections through the same import.
type AttributeTypeGroup struct {
	Classifier SemanticElement  `json:"classifier"`
	Type       *SemanticElement `json:"type,omitempty"`
	ImportID   string           `json:"importId,omitempty"`
	Hash       string           `json:"hash,omitempty"`
}

func (ResourceRoot) isNode()              {}
func (SemanticElement) isNode()           {}
func (RepresentationRecord) isNode()      {}
func (ImportedElementProjection) isNode() {}
func (AttributeTypeGroup) isNode()        {}

// Visitor is an operation defined for every node variant.
type Visitor[T any] interface {
	Resource(n ResourceRoot) T
	Element(n SemanticElement) T
	Representation(n RepresentationRecord) T
	Imported(n ImportedElementProjection) T
	AttributeGroup(n AttributeTypeGroup) T
}

// Visit dispatches n to the matching Visitor method. Pointer forms of the
// variants are accepted for convenience. A nil node yields the zero T.
func Visit[T any](n Node, v Visitor[T]) T {
	switch n := n.(type) {
	case ResourceRoot:
		return v.Resource(n)
	case *ResourceRoot:
		return v.Resource(*n)
	case SemanticElement:
		return v.Element(n)
	case *SemanticElement:
		return v.Element(*n)
	case RepresentationRecord:
		return v.Representation(n)
	case *RepresentationRecord:
		return v.Representation(*n)
	case ImportedElementProjection:
		return v.Imported(n)
	case *ImportedElementProjection:
		return v.Imported(*n)
	case AttributeTypeGroup:
		return v.AttributeGroup(n)
	case *AttributeTypeGroup:
		return v.AttributeGroup(*n)
	}
	var zero T
	return zero
}
