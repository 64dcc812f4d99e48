package explorer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// Expanded is the set of node tokens the client currently has open.
type Expanded map[string]struct{}

// NewExpanded returns a set holding the given tokens.
func NewExpanded(tokens ...string) Expanded {
	e := make(Expanded, len(tokens))
	for _, t := range tokens {
		e[t] = struct{}{}
	}
	return e
}

// Has reports whether token is expanded. A nil set expands nothing.
func (e Expanded) Has(token string) bool {
	_, ok := e[token]
	return ok
}

// Resolver computes children and parents of nodes.
type Resolver struct {
	objects         ObjectService
	reps            RepresentationIndex
	codec           *Codec
	groupAttributes bool
}

// NewResolver returns a resolver. When groupAttributes is set, structured
// classifiers get one AttributeTypeGroup per attribute type among their
// children.
func NewResolver(objects ObjectService, reps RepresentationIndex, groupAttributes bool) *Resolver {
	return &Resolver{
		objects:         objects,
		reps:            reps,
		codec:           NewCodec(objects, reps),
		groupAttributes: groupAttributes,
	}
}

// Children returns the ordered children of n, or nothing unless the token of
// n is in expanded. ancestors holds the tokens from the root down to the
// parent of n; it feeds the disambiguation hash of projections.
func (r *Resolver) Children(ctx context.Context, n Node, expanded Expanded, ancestors []string) ([]Node, error) {
	if n == nil || !expanded.Has(r.codec.Encode(n)) {
		return nil, nil
	}
	res := Visit[childResult](n, &childVisitor{ctx: ctx, r: r, ancestors: ancestors})
	return res.nodes, res.err
}

type childResult struct {
	nodes []Node
	err   error
}

type childVisitor struct {
	ctx       context.Context
	r         *Resolver
	ancestors []string
}

func (v *childVisitor) Resource(n ResourceRoot) childResult {
	contents, err := v.r.objects.ResourceContents(v.ctx, n.Path)
	if err != nil {
		return childResult{err: fmt.Errorf("contents of resource %s: %w", n.Path, err)}
	}
	return childResult{nodes: v.r.semanticNodes(contents)}
}

func (v *childVisitor) Element(n SemanticElement) childResult {
	nodes, err := v.r.elementChildren(v.ctx, n, chain(v.ancestors, n.ID))
	return childResult{nodes: nodes, err: err}
}

func (v *childVisitor) Representation(RepresentationRecord) childResult {
	return childResult{}
}

func (v *childVisitor) Imported(n ImportedElementProjection) childResult {
	nodes, err := v.r.projectionChildren(v.ctx, n, chain(v.ancestors, v.r.codec.Encode(n)))
	return childResult{nodes: nodes, err: err}
}

func (v *childVisitor) AttributeGroup(n AttributeTypeGroup) childResult {
	attrs, err := v.r.groupMembers(v.ctx, n)
	if err != nil {
		return childResult{err: err}
	}
	nodes := v.r.semanticNodes(attrs)
	if n.ImportID == "" {
		return childResult{nodes: nodes}
	}
	trail := chain(v.ancestors, v.r.codec.Encode(n))
	for i, c := range nodes {
		nodes[i] = Visit[Node](c, rewrapVisitor{importID: n.ImportID, hash: disambiguationHash(trail, i)})
	}
	return childResult{nodes: nodes}
}

// elementChildren lists the children of a semantic element without gating:
// representations by label, then semantic contents, then projections.
// trail is the ancestor chain ending with the element itself.
func (r *Resolver) elementChildren(ctx context.Context, n SemanticElement, trail []string) ([]Node, error) {
	reps, err := r.reps.ByTarget(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("representations of %s: %w", n.ID, err)
	}
	contents, err := r.objects.Contents(ctx, n.Object)
	if err != nil {
		return nil, fmt.Errorf("contents of %s: %w", n.ID, err)
	}

	nodes := make([]Node, 0, len(reps)+len(contents))
	for _, rep := range reps {
		nodes = append(nodes, newRepresentationRecord(rep))
	}
	nodes = append(nodes, r.semanticNodes(contents)...)

	projections, err := r.projections(ctx, n, trail, len(nodes))
	if err != nil {
		return nil, err
	}
	return append(nodes, projections...), nil
}

// HasChildren reports whether n has children once expanded. It checks
// representations, contents and projection candidates in turn and stops at
// the first hit without building nodes.
func (r *Resolver) HasChildren(ctx context.Context, n Node) (bool, error) {
	res := Visit[boolResult](n, &hasChildrenVisitor{ctx: ctx, r: r})
	return res.ok, res.err
}

type boolResult struct {
	ok  bool
	err error
}

type hasChildrenVisitor struct {
	ctx context.Context
	r   *Resolver
}

func (v *hasChildrenVisitor) Resource(n ResourceRoot) boolResult {
	contents, err := v.r.objects.ResourceContents(v.ctx, n.Path)
	if err != nil {
		return boolResult{err: fmt.Errorf("contents of resource %s: %w", n.Path, err)}
	}
	return boolResult{ok: anySemantic(contents)}
}

func (v *hasChildrenVisitor) Element(n SemanticElement) boolResult {
	ok, err := v.r.hasElementChildren(v.ctx, n)
	return boolResult{ok: ok, err: err}
}

func (v *hasChildrenVisitor) Representation(RepresentationRecord) boolResult {
	return boolResult{}
}

func (v *hasChildrenVisitor) Imported(n ImportedElementProjection) boolResult {
	ok, err := v.r.hasElementChildren(v.ctx, n.Element)
	return boolResult{ok: ok, err: err}
}

func (v *hasChildrenVisitor) AttributeGroup(n AttributeTypeGroup) boolResult {
	attrs, err := v.r.groupMembers(v.ctx, n)
	return boolResult{ok: len(attrs) > 0, err: err}
}

func (r *Resolver) hasElementChildren(ctx context.Context, n SemanticElement) (bool, error) {
	ok, err := r.reps.ExistsByTarget(ctx, n.ID)
	if err != nil {
		return false, fmt.Errorf("representations of %s: %w", n.ID, err)
	}
	if ok {
		return true, nil
	}
	contents, err := r.objects.Contents(ctx, n.Object)
	if err != nil {
		return false, fmt.Errorf("contents of %s: %w", n.ID, err)
	}
	if anySemantic(contents) {
		return true, nil
	}
	return r.hasProjections(ctx, n, contents)
}

// Parent returns the node above n, or nil for resources and for nodes whose
// parent no longer exists. The parent of a projection is its owning import
// statement.
func (r *Resolver) Parent(ctx context.Context, n Node) (Node, error) {
	res := Visit[parentResult](n, &parentVisitor{ctx: ctx, r: r})
	return res.node, res.err
}

type parentResult struct {
	node Node
	err  error
}

type parentVisitor struct {
	ctx context.Context
	r   *Resolver
}

func (v *parentVisitor) Resource(ResourceRoot) parentResult {
	return parentResult{}
}

func (v *parentVisitor) Element(n SemanticElement) parentResult {
	if owner := n.Object.OwnerID; owner != "" {
		res := v.element(owner)
		if res.node != nil || res.err != nil {
			return res
		}
	}
	res, err := v.r.objects.Resource(v.ctx, n.Object.Resource)
	if err != nil {
		return parentResult{err: fmt.Errorf("resolve resource %s: %w", n.Object.Resource, err)}
	}
	if res == nil {
		return parentResult{}
	}
	return parentResult{node: newResourceRoot(*res)}
}

func (v *parentVisitor) Representation(n RepresentationRecord) parentResult {
	return v.element(n.TargetID)
}

func (v *parentVisitor) Imported(n ImportedElementProjection) parentResult {
	return v.element(n.ImportID)
}

func (v *parentVisitor) AttributeGroup(n AttributeTypeGroup) parentResult {
	if n.ImportID != "" {
		return v.element(n.ImportID)
	}
	return parentResult{node: n.Classifier}
}

func (v *parentVisitor) element(id string) parentResult {
	obj, err := v.r.objects.Resolve(v.ctx, id)
	if err != nil {
		return parentResult{err: fmt.Errorf("resolve element %s: %w", id, err)}
	}
	if obj == nil {
		return parentResult{}
	}
	return parentResult{node: newSemanticElement(v.r.objects, *obj)}
}

// --- node construction ---

func (r *Resolver) semanticNodes(elems []graph.Element) []Node {
	nodes := make([]Node, 0, len(elems))
	for _, e := range elems {
		if e.Kind.IsSemantic() {
			nodes = append(nodes, newSemanticElement(r.objects, e))
		}
	}
	return nodes
}

func anySemantic(elems []graph.Element) bool {
	for _, e := range elems {
		if e.Kind.IsSemantic() {
			return true
		}
	}
	return false
}

func newSemanticElement(objects ObjectService, obj graph.Element) SemanticElement {
	n := SemanticElement{
		Object: obj,
		ID:     objects.ID(obj),
		Label:  objects.Label(obj),
		Kind:   objects.Kind(obj),
		Icons:  objects.Icons(obj),
		Tags:   obj.Tags,
	}
	if obj.Kind.SupportsStatic() {
		n.Static = graph.Bool(obj.Static != nil && *obj.Static)
	}
	if obj.Kind.SupportsAbstract() {
		n.Abstract = graph.Bool(obj.Abstract != nil && *obj.Abstract)
	}
	return n
}

func newRepresentationRecord(rep graph.Representation) RepresentationRecord {
	return RepresentationRecord{ID: rep.ID, Label: rep.Label, Kind: rep.Kind, TargetID: rep.TargetID}
}

// newResourceRoot labels a resource by its metadata label or, failing that,
// by the last segment of its path.
func newResourceRoot(res graph.Resource) ResourceRoot {
	label := res.Label
	if label == "" {
		label = path.Base(strings.TrimSuffix(res.Path, "/"))
	}
	return ResourceRoot{Path: res.Path, Label: label, ReadOnly: res.ReadOnly}
}

// chain returns ancestors extended by id, without aliasing ancestors.
func chain(ancestors []string, id string) []string {
	out := make([]string, len(ancestors), len(ancestors)+1)
	copy(out, ancestors)
	return append(out, id)
}
