package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Token schemes of the synthetic variants. Real nodes use the id of the
// underlying object (element id, representation id, resource path).
const (
	importedScheme  = "imported"
	attrGroupScheme = "attrgroup"

	// untypedKey stands in for the type id of the untyped attribute group.
	untypedKey = "untyped"
)

// Codec converts nodes to tokens and back.
type Codec struct {
	objects ObjectService
	reps    RepresentationIndex
}

// NewCodec returns a codec that decodes against the given services.
func NewCodec(objects ObjectService, reps RepresentationIndex) *Codec {
	return &Codec{objects: objects, reps: reps}
}

// Encode returns the token of n. It is a pure function of the node's
// identity and never consults the graph.
func (c *Codec) Encode(n Node) string {
	return Visit[string](n, tokenVisitor{})
}

type tokenVisitor struct{}

func (tokenVisitor) Resource(n ResourceRoot) string               { return n.Path }
func (tokenVisitor) Element(n SemanticElement) string             { return n.ID }
func (tokenVisitor) Representation(n RepresentationRecord) string { return n.ID }

func (tokenVisitor) Imported(n ImportedElementProjection) string {
	return syntheticToken(importedScheme, url.Values{
		"object": {n.Element.ID},
		"import": {n.ImportID},
		"hash":   {n.Hash},
	})
}

func (tokenVisitor) AttributeGroup(n AttributeTypeGroup) string {
	v := url.Values{
		"classifier": {n.Classifier.ID},
		"type":       {groupKey(n.Type)},
	}
	if n.ImportID != "" {
		v.Set("import", n.ImportID)
		v.Set("hash", n.Hash)
	}
	return syntheticToken(attrGroupScheme, v)
}

// syntheticToken renders scheme://?k=v&... with keys in sorted order, so the
// same node always encodes to the same string.
func syntheticToken(scheme string, v url.Values) string {
	return scheme + "://?" + v.Encode()
}

func groupKey(t *SemanticElement) string {
	if t == nil {
		return untypedKey
	}
	return t.ID
}

// Decode rebuilds the node identified by token from the current graph.
// Stale or invalid tokens yield an error wrapping ErrMalformedToken,
// ErrDanglingReference or ErrUnsupportedVariant; any other error comes from
// the backing services.
func (c *Codec) Decode(ctx context.Context, token string) (Node, error) {
	if scheme, query, ok := strings.Cut(token, "://?"); ok {
		switch scheme {
		case importedScheme:
			return c.decodeImported(ctx, token, query)
		case attrGroupScheme:
			return c.decodeGroup(ctx, token, query)
		}
	}
	return c.decodeReal(ctx, token)
}

func (c *Codec) decodeImported(ctx context.Context, token, query string) (Node, error) {
	params, err := parseParams(token, query, "object", "import", "hash")
	if err != nil {
		return nil, err
	}
	imp, err := c.objects.Resolve(ctx, params["import"])
	if err != nil {
		return nil, fmt.Errorf("resolve import %s: %w", params["import"], err)
	}
	if imp == nil || !imp.Kind.IsImport() {
		return nil, fmt.Errorf("%w: import %q in %q", ErrDanglingReference, params["import"], token)
	}
	obj, err := c.objects.Resolve(ctx, params["object"])
	if err != nil {
		return nil, fmt.Errorf("resolve element %s: %w", params["object"], err)
	}
	if obj == nil || !obj.Kind.IsSemantic() {
		return nil, fmt.Errorf("%w: element %q in %q", ErrDanglingReference, params["object"], token)
	}
	return ImportedElementProjection{
		Element:  newSemanticElement(c.objects, *obj),
		ImportID: c.objects.ID(*imp),
		Hash:     params["hash"],
	}, nil
}

func (c *Codec) decodeGroup(ctx context.Context, token, query string) (Node, error) {
	params, err := parseParams(token, query, "classifier", "type")
	if err != nil {
		return nil, err
	}
	cls, err := c.objects.Resolve(ctx, params["classifier"])
	if err != nil {
		return nil, fmt.Errorf("resolve classifier %s: %w", params["classifier"], err)
	}
	if cls == nil || !cls.Kind.IsStructuredClassifier() {
		return nil, fmt.Errorf("%w: classifier %q in %q", ErrDanglingReference, params["classifier"], token)
	}
	group := AttributeTypeGroup{Classifier: newSemanticElement(c.objects, *cls)}
	if err := c.decodeGroupImport(ctx, token, query, &group); err != nil {
		return nil, err
	}
	if key := params["type"]; key != untypedKey {
		typ, err := c.objects.Resolve(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve type %s: %w", key, err)
		}
		if typ == nil {
			return nil, fmt.Errorf("%w: type %q in %q", ErrDanglingReference, key, token)
		}
		t := newSemanticElement(c.objects, *typ)
		group.Type = &t
	}
	return group, nil
}

// decodeGroupImport fills in the import of a projected group. Plain groups
// carry neither import nor hash; a projected group needs both.
func (c *Codec) decodeGroupImport(ctx context.Context, token, query string, g *AttributeTypeGroup) error {
	values, _ := url.ParseQuery(query)
	if values.Get("import") == "" && values.Get("hash") == "" {
		return nil
	}
	params, err := parseParams(token, query, "import", "hash")
	if err != nil {
		return err
	}
	imp, err := c.objects.Resolve(ctx, params["import"])
	if err != nil {
		return fmt.Errorf("resolve import %s: %w", params["import"], err)
	}
	if imp == nil || !imp.Kind.IsImport() {
		return fmt.Errorf("%w: import %q in %q", ErrDanglingReference, params["import"], token)
	}
	g.ImportID = c.objects.ID(*imp)
	g.Hash = params["hash"]
	return nil
}

// decodeReal looks token up as an element id, then a representation id,
// then a resource path.
func (c *Codec) decodeReal(ctx context.Context, token string) (Node, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	obj, err := c.objects.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve element %s: %w", token, err)
	}
	if obj != nil {
		return newSemanticElement(c.objects, *obj), nil
	}
	rep, err := c.reps.ByID(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve representation %s: %w", token, err)
	}
	if rep != nil {
		return newRepresentationRecord(*rep), nil
	}
	res, err := c.objects.Resource(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve resource %s: %w", token, err)
	}
	if res != nil {
		return newResourceRoot(*res), nil
	}
	if strings.Contains(token, "://") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVariant, token)
	}
	return nil, fmt.Errorf("%w: %q", ErrDanglingReference, token)
}

// parseParams parses query and returns the required keys. A missing or empty
// key makes the token malformed.
func parseParams(token, query string, keys ...string) (map[string]string, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedToken, token, err)
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v := values.Get(k)
		if v == "" {
			return nil, fmt.Errorf("%w: %q: missing %s", ErrMalformedToken, token, k)
		}
		out[k] = v
	}
	return out, nil
}

// disambiguationHash digests an ancestor chain and a sibling index into 16
// hex digits. Each id is length prefixed so ids containing separators cannot
// shift segment boundaries. The digest is order sensitive and is never
// decoded.
func disambiguationHash(chain []string, index int) string {
	d := xxhash.New()
	for _, id := range chain {
		_, _ = d.WriteString(strconv.Itoa(len(id)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(id)
	}
	_, _ = d.WriteString(strconv.Itoa(index))
	return fmt.Sprintf("%016x", d.Sum64())
}
