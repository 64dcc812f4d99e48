package explorer

import (
	"context"
	"fmt"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// projections returns the synthetic children of n: the projection of an
// import statement's target, and the attribute-type groups of a structured
// classifier when grouping is enabled. start is the sibling index of the
// first projection.
func (r *Resolver) projections(ctx context.Context, n SemanticElement, trail []string, start int) ([]Node, error) {
	var out []Node
	target, err := r.importTarget(ctx, n)
	if err != nil {
		return nil, err
	}
	if target != nil {
		out = append(out, ImportedElementProjection{
			Element:  newSemanticElement(r.objects, *target),
			ImportID: n.ID,
			Hash:     disambiguationHash(trail, start),
		})
	}
	if r.groupAttributes && n.Object.Kind.IsStructuredClassifier() {
		groups, err := r.attributeGroups(ctx, n)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			out = append(out, g)
		}
	}
	return out, nil
}

// hasProjections reports whether projections would be non-empty. contents
// are the already loaded contents of n.
func (r *Resolver) hasProjections(ctx context.Context, n SemanticElement, contents []graph.Element) (bool, error) {
	target, err := r.importTarget(ctx, n)
	if err != nil || target != nil {
		return target != nil, err
	}
	if r.groupAttributes && n.Object.Kind.IsStructuredClassifier() {
		for _, c := range contents {
			if c.Kind.IsAttribute() {
				return true, nil
			}
		}
	}
	return false, nil
}

// importTarget returns the element an import statement points at, or nil
// when n is not an import or its target no longer resolves.
func (r *Resolver) importTarget(ctx context.Context, n SemanticElement) (*graph.Element, error) {
	if !n.Object.Kind.IsImport() || n.Object.ImportTarget == "" {
		return nil, nil
	}
	target, err := r.objects.Resolve(ctx, n.Object.ImportTarget)
	if err != nil {
		return nil, fmt.Errorf("resolve import target %s: %w", n.Object.ImportTarget, err)
	}
	if target == nil || !target.Kind.IsSemantic() {
		return nil, nil
	}
	return target, nil
}

// projectionChildren lists the children of the wrapped element and shows
// each of them through the same import: plain elements are wrapped, nested
// projections and attribute groups are re-owned, anything else passes
// through. trail ends with
// the projection's own token.
func (r *Resolver) projectionChildren(ctx context.Context, p ImportedElementProjection, trail []string) ([]Node, error) {
	children, err := r.elementChildren(ctx, p.Element, trail)
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = Visit[Node](c, rewrapVisitor{importID: p.ImportID, hash: disambiguationHash(trail, i)})
	}
	return out, nil
}

type rewrapVisitor struct {
	importID string
	hash     string
}

func (v rewrapVisitor) Resource(n ResourceRoot) Node               { return n }
func (v rewrapVisitor) Representation(n RepresentationRecord) Node { return n }

func (v rewrapVisitor) AttributeGroup(n AttributeTypeGroup) Node {
	n.ImportID = v.importID
	n.Hash = v.hash
	return n
}

func (v rewrapVisitor) Element(n SemanticElement) Node {
	return ImportedElementProjection{Element: n, ImportID: v.importID, Hash: v.hash}
}

func (v rewrapVisitor) Imported(n ImportedElementProjection) Node {
	return ImportedElementProjection{Element: n.Element, ImportID: v.importID, Hash: v.hash}
}

// attributeGroups buckets the attributes of classifier n by type. Groups
// appear in order of first occurrence; untyped attributes and attributes
// whose type no longer resolves share the untyped group.
func (r *Resolver) attributeGroups(ctx context.Context, n SemanticElement) ([]AttributeTypeGroup, error) {
	contents, err := r.objects.Contents(ctx, n.Object)
	if err != nil {
		return nil, fmt.Errorf("contents of %s: %w", n.ID, err)
	}
	seen := make(map[string]bool)
	var groups []AttributeTypeGroup
	for _, c := range contents {
		if !c.Kind.IsAttribute() {
			continue
		}
		typ, err := r.attributeType(ctx, c)
		if err != nil {
			return nil, err
		}
		key := untypedKey
		if typ != nil {
			key = r.objects.ID(*typ)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		g := AttributeTypeGroup{Classifier: n}
		if typ != nil {
			t := newSemanticElement(r.objects, *typ)
			g.Type = &t
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// groupMembers returns the attributes of the group's classifier whose type
// matches the group.
func (r *Resolver) groupMembers(ctx context.Context, g AttributeTypeGroup) ([]graph.Element, error) {
	contents, err := r.objects.Contents(ctx, g.Classifier.Object)
	if err != nil {
		return nil, fmt.Errorf("contents of %s: %w", g.Classifier.ID, err)
	}
	want := groupKey(g.Type)
	var members []graph.Element
	for _, c := range contents {
		if !c.Kind.IsAttribute() {
			continue
		}
		typ, err := r.attributeType(ctx, c)
		if err != nil {
			return nil, err
		}
		key := untypedKey
		if typ != nil {
			key = r.objects.ID(*typ)
		}
		if key == want {
			members = append(members, c)
		}
	}
	return members, nil
}

func (r *Resolver) attributeType(ctx context.Context, attr graph.Element) (*graph.Element, error) {
	if attr.TypeID == "" {
		return nil, nil
	}
	typ, err := r.objects.Resolve(ctx, attr.TypeID)
	if err != nil {
		return nil, fmt.Errorf("resolve type of %s: %w", attr.ID, err)
	}
	return typ, nil
}
