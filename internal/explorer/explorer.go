package explorer

import (
	"context"
	"log/slog"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// Explorer is the tree API offered to clients. It holds no per-client state:
// every call receives the expanded set and ancestor chain it needs.
type Explorer struct {
	objects  ObjectService
	reps     RepresentationIndex
	policy   ReadOnlyPolicy
	codec    *Codec
	resolver *Resolver
	logger   *slog.Logger
}

// Option configures an Explorer.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	groupAttributes bool
}

// WithLogger sets the logger used for stale-token warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAttributeGrouping enables AttributeTypeGroup children on structured
// classifiers.
func WithAttributeGrouping(enabled bool) Option {
	return func(o *options) { o.groupAttributes = enabled }
}

// New returns an Explorer over the given services.
func New(objects ObjectService, reps RepresentationIndex, policy ReadOnlyPolicy, opts ...Option) *Explorer {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Explorer{
		objects:  objects,
		reps:     reps,
		policy:   policy,
		codec:    NewCodec(objects, reps),
		resolver: NewResolver(objects, reps, o.groupAttributes),
		logger:   o.logger,
	}
}

// NewFromStore returns an Explorer reading store through StoreServices.
func NewFromStore(store graph.Store, readOnlyPatterns []string, opts ...Option) *Explorer {
	svc := NewStoreServices(store, readOnlyPatterns)
	return New(svc, svc, svc, opts...)
}

// Children returns the children of n if n is expanded.
func (e *Explorer) Children(ctx context.Context, n Node, expanded Expanded, ancestors []string) ([]Node, error) {
	return e.resolver.Children(ctx, n, expanded, ancestors)
}

// HasChildren reports whether n would have children once expanded.
func (e *Explorer) HasChildren(ctx context.Context, n Node) (bool, error) {
	return e.resolver.HasChildren(ctx, n)
}

// Parent returns the node above n, or nil.
func (e *Explorer) Parent(ctx context.Context, n Node) (Node, error) {
	return e.resolver.Parent(ctx, n)
}

// ID returns the token of n.
func (e *Explorer) ID(n Node) string {
	return e.codec.Encode(n)
}

// Resolve returns the node behind token. A token that no longer names a
// node is not an error: it is logged and reported as nil.
func (e *Explorer) Resolve(ctx context.Context, token string) (Node, error) {
	n, err := e.codec.Decode(ctx, token)
	if err != nil {
		if isNotFound(err) {
			e.logger.Warn("explorer: cannot resolve token", "token", token, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

// Label returns the display label of n.
func (e *Explorer) Label(n Node) string {
	return Visit[string](n, labelVisitor{})
}

type labelVisitor struct{}

func (labelVisitor) Resource(n ResourceRoot) string               { return n.Label }
func (labelVisitor) Element(n SemanticElement) string             { return n.Label }
func (labelVisitor) Representation(n RepresentationRecord) string { return n.Label }
func (labelVisitor) Imported(n ImportedElementProjection) string  { return n.Element.Label }

func (labelVisitor) AttributeGroup(n AttributeTypeGroup) string {
	if n.Type == nil {
		return "<untyped>"
	}
	return n.Type.Label
}

// Kind returns the kind tag of n.
func (e *Explorer) Kind(n Node) string {
	return Visit[string](n, kindVisitor{})
}

// Kind tags of the nodes the explorer itself contributes. Elements and
// representations carry the kind of the underlying object.
const (
	KindResource       = "explorer::Resource"
	KindImported       = "explorer::ImportedElement"
	KindAttributeGroup = "explorer::AttributeTypeGroup"
)

type kindVisitor struct{}

func (kindVisitor) Resource(ResourceRoot) string                 { return KindResource }
func (kindVisitor) Element(n SemanticElement) string             { return n.Kind }
func (kindVisitor) Representation(n RepresentationRecord) string { return n.Kind }
func (kindVisitor) Imported(ImportedElementProjection) string    { return KindImported }
func (kindVisitor) AttributeGroup(AttributeTypeGroup) string     { return KindAttributeGroup }

// Icons returns the icon references of n.
func (e *Explorer) Icons(n Node) []string {
	return Visit[[]string](n, iconVisitor{})
}

type iconVisitor struct{}

func (iconVisitor) Resource(n ResourceRoot) []string {
	if n.ReadOnly {
		return []string{"icons/resource.svg", "icons/overlays/locked.svg"}
	}
	return []string{"icons/resource.svg"}
}

func (iconVisitor) Element(n SemanticElement) []string { return n.Icons }

func (iconVisitor) Representation(n RepresentationRecord) []string {
	return []string{"icons/representation/" + n.Kind + ".svg"}
}

func (iconVisitor) Imported(n ImportedElementProjection) []string {
	return append(append([]string(nil), n.Element.Icons...), "icons/overlays/imported.svg")
}

func (iconVisitor) AttributeGroup(AttributeTypeGroup) []string {
	return []string{"icons/attribute-group.svg"}
}

// CanDelete reports whether the explorer offers to delete n. Synthetic nodes
// and nodes of read-only resources cannot be deleted.
func (e *Explorer) CanDelete(ctx context.Context, n Node) bool {
	return Visit[bool](n, &editVisitor{ctx: ctx, e: e})
}

// CanRename reports whether the explorer offers to rename n. Import
// statements are named after their target and cannot be renamed on their own.
func (e *Explorer) CanRename(ctx context.Context, n Node) bool {
	return Visit[bool](n, &editVisitor{ctx: ctx, e: e, rename: true})
}

type editVisitor struct {
	ctx    context.Context
	e      *Explorer
	rename bool
}

func (v *editVisitor) Resource(n ResourceRoot) bool {
	return !v.e.policy.IsReadOnly(v.ctx, graph.Resource{Path: n.Path, Label: n.Label, ReadOnly: n.ReadOnly})
}

func (v *editVisitor) Element(n SemanticElement) bool {
	if v.rename && n.Object.Kind.IsImport() {
		return false
	}
	return v.editable(n.Object.Resource)
}

func (v *editVisitor) Representation(n RepresentationRecord) bool {
	target, err := v.e.objects.Resolve(v.ctx, n.TargetID)
	if err != nil || target == nil {
		return false
	}
	return v.editable(target.Resource)
}

func (v *editVisitor) Imported(ImportedElementProjection) bool { return false }
func (v *editVisitor) AttributeGroup(AttributeTypeGroup) bool  { return false }

func (v *editVisitor) editable(resourcePath string) bool {
	res, err := v.e.objects.Resource(v.ctx, resourcePath)
	if err != nil || res == nil {
		return false
	}
	return !v.e.policy.IsReadOnly(v.ctx, *res)
}
