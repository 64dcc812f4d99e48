package explorer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// fixtureModel is a small graph:
//
//	models/p.model   P { C { x: int }, I: import Q, // note }
//	models/q.model   Q { D, J: import R }
//	models/r.model   R { E }
//	models/empty.model   (comment only)
//	lib/types.model  int, string (read-only)
func fixtureModel() *graph.ModelDocument {
	return &graph.ModelDocument{
		Resources: []graph.ResourceDoc{
			{Path: "models/p.model", Elements: []graph.ElementDoc{
				{ID: "P", Kind: graph.ElementKindPackage, Name: "P", Elements: []graph.ElementDoc{
					{ID: "C", Kind: graph.ElementKindClass, Name: "C", Abstract: graph.Bool(false), Elements: []graph.ElementDoc{
						{ID: "C.x", Kind: graph.ElementKindProperty, Name: "x", Type: "int"},
					}},
					{ID: "I", Kind: graph.ElementKindPackageImport, Name: "import Q", Target: "Q"},
					{ID: "P.note", Kind: graph.ElementKindComment, Name: "note"},
				}},
			}},
			{Path: "models/q.model", Label: "Q model", Elements: []graph.ElementDoc{
				{ID: "Q", Kind: graph.ElementKindPackage, Name: "Q", Elements: []graph.ElementDoc{
					{ID: "D", Kind: graph.ElementKindClass, Name: "D"},
					{ID: "J", Kind: graph.ElementKindPackageImport, Name: "import R", Target: "R"},
				}},
			}},
			{Path: "models/r.model", Elements: []graph.ElementDoc{
				{ID: "R", Kind: graph.ElementKindPackage, Name: "R", Elements: []graph.ElementDoc{
					{ID: "E", Kind: graph.ElementKindClass, Name: "E"},
				}},
			}},
			{Path: "models/empty.model", Elements: []graph.ElementDoc{
				{ID: "empty.note", Kind: graph.ElementKindComment, Name: "nothing here"},
			}},
			{Path: "lib/types.model", Label: "types", ReadOnly: true, Elements: []graph.ElementDoc{
				{ID: "int", Kind: graph.ElementKindPrimitiveType, Name: "int"},
				{ID: "string", Kind: graph.ElementKindPrimitiveType, Name: "string"},
			}},
		},
		Representations: []graph.RepresentationDoc{
			{ID: "rep-beta", Label: "beta", Kind: "diagram", Target: "C"},
			{ID: "rep-Alpha", Label: "Alpha", Kind: "table", Target: "C"},
		},
	}
}

// newTestExplorer loads doc into a MemStore and returns an Explorer over it.
func newTestExplorer(t *testing.T, doc *graph.ModelDocument, opts ...Option) (*Explorer, graph.Store) {
	t.Helper()
	store := graph.NewMemStore()
	t.Cleanup(func() { _ = store.Close() })
	_, err := graph.ApplyModel(context.Background(), store, doc)
	require.NoError(t, err)
	return NewFromStore(store, nil, opts...), store
}

// element resolves id and fails the test unless it is a SemanticElement.
func element(t *testing.T, e *Explorer, id string) SemanticElement {
	t.Helper()
	n, err := e.Resolve(context.Background(), id)
	require.NoError(t, err)
	el, ok := n.(SemanticElement)
	require.True(t, ok, "expected SemanticElement for %s, got %T", id, n)
	return el
}

// expand returns the children of n with only n expanded.
func expand(t *testing.T, e *Explorer, n Node, ancestors ...string) []Node {
	t.Helper()
	children, err := e.Children(context.Background(), n, NewExpanded(e.ID(n)), ancestors)
	require.NoError(t, err)
	return children
}

func labels(e *Explorer, nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = e.Label(n)
	}
	return out
}

// walk visits every node reachable from the roots with everything expanded.
func walk(t *testing.T, e *Explorer, visit func(n Node, ancestors []string)) {
	t.Helper()
	roots, err := e.Roots(context.Background())
	require.NoError(t, err)
	var rec func(n Node, ancestors []string, depth int)
	rec = func(n Node, ancestors []string, depth int) {
		visit(n, ancestors)
		require.Less(t, depth, 10, "tree deeper than expected")
		next := chain(ancestors, e.ID(n))
		for _, c := range expand(t, e, n, ancestors...) {
			rec(c, next, depth+1)
		}
	}
	for _, r := range roots {
		rec(r, nil, 0)
	}
}

// ---------------------------------------------------------------------------
// Roots
// ---------------------------------------------------------------------------

func TestRoots_OrderedCaseInsensitively(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())

	roots, err := e.Roots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.model", "p.model", "Q model", "r.model", "types"}, labels(e, roots))
}

func TestRoots_Filters(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())
	ctx := context.Background()

	roots, err := e.Roots(ctx, FilterHideReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.model", "p.model", "Q model", "r.model"}, labels(e, roots))

	roots, err = e.Roots(ctx, FilterHideNonSemantic)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.model", "Q model", "r.model", "types"}, labels(e, roots))

	roots, err = e.Roots(ctx, FilterHideReadOnly, FilterHideNonSemantic)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.model", "Q model", "r.model"}, labels(e, roots))
}

func TestRoots_ReadOnlyPatterns(t *testing.T) {
	store := graph.NewMemStore()
	_, err := graph.ApplyModel(context.Background(), store, fixtureModel())
	require.NoError(t, err)
	e := NewFromStore(store, []string{"models/r.*"})

	roots, err := e.Roots(context.Background(), FilterHideReadOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.model", "p.model", "Q model"}, labels(e, roots))
}

func TestSortByLabel_EmptyLast(t *testing.T) {
	s := []string{"", "b", "A", "", "a", "C"}
	sortByLabel(s, func(l string) string { return l })
	assert.Equal(t, []string{"A", "a", "b", "C", "", ""}, s)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("hide-read-only")
	require.NoError(t, err)
	assert.Equal(t, FilterHideReadOnly, f)

	_, err = ParseFilter("hide-everything")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Children
// ---------------------------------------------------------------------------

func TestChildren_ImportScenario(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())

	p := element(t, e, "P")
	pChildren := expand(t, e, p, "models/p.model")
	require.Len(t, pChildren, 2)
	assert.Equal(t, "C", pChildren[0].(SemanticElement).ID)
	assert.Equal(t, "I", pChildren[1].(SemanticElement).ID)

	// Expanding the import statement yields exactly one projection of Q.
	iChildren := expand(t, e, pChildren[1], "models/p.model", "P")
	require.Len(t, iChildren, 1)
	projQ, ok := iChildren[0].(ImportedElementProjection)
	require.True(t, ok)
	assert.Equal(t, "Q", projQ.Element.ID)
	assert.Equal(t, "I", projQ.ImportID)
	assert.Equal(t, disambiguationHash([]string{"models/p.model", "P", "I"}, 0), projQ.Hash)

	// Expanding the projection shows Q's contents through the same import.
	qChildren := expand(t, e, projQ, "models/p.model", "P", "I")
	require.Len(t, qChildren, 2)
	projD := qChildren[0].(ImportedElementProjection)
	projJ := qChildren[1].(ImportedElementProjection)
	assert.Equal(t, "D", projD.Element.ID)
	assert.Equal(t, "J", projJ.Element.ID)
	assert.Equal(t, "I", projD.ImportID)
	assert.Equal(t, "I", projJ.ImportID)
	assert.NotEqual(t, projD.Hash, projJ.Hash)

	// A nested import is re-owned, never wrapped twice.
	jChildren := expand(t, e, projJ, "models/p.model", "P", "I", e.ID(projQ))
	require.Len(t, jChildren, 1)
	projR := jChildren[0].(ImportedElementProjection)
	assert.Equal(t, "R", projR.Element.ID)
	assert.Equal(t, "I", projR.ImportID)

	parent, err := e.Parent(context.Background(), projR)
	require.NoError(t, err)
	assert.Equal(t, "I", parent.(SemanticElement).ID)
}

func TestChildren_RepresentationsFirst(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())

	children := expand(t, e, element(t, e, "C"), "models/p.model", "P")
	require.Len(t, children, 3)
	assert.Equal(t, []string{"Alpha", "beta", "x"}, labels(e, children))
	assert.IsType(t, RepresentationRecord{}, children[0])
	assert.IsType(t, RepresentationRecord{}, children[1])
	assert.IsType(t, SemanticElement{}, children[2])
}

func TestChildren_ResourceDropsNonSemantic(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())

	res, err := e.Resolve(context.Background(), "models/empty.model")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, expand(t, e, res))

	has, err := e.HasChildren(context.Background(), res)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestChildren_Gating(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel(), WithAttributeGrouping(true))
	ctx := context.Background()

	count := 0
	walk(t, e, func(n Node, ancestors []string) {
		count++
		closed, err := e.Children(ctx, n, nil, ancestors)
		require.NoError(t, err)
		assert.Empty(t, closed, "children of %s without expansion", e.ID(n))

		other, err := e.Children(ctx, n, NewExpanded("something-else"), ancestors)
		require.NoError(t, err)
		assert.Empty(t, other)

		has, err := e.HasChildren(ctx, n)
		require.NoError(t, err)
		open := expand(t, e, n, ancestors...)
		assert.Equal(t, has, len(open) > 0, "HasChildren disagrees with Children for %s", e.ID(n))
	})
	assert.Greater(t, count, 15)
}

func TestChildren_NilNode(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel())
	children, err := e.Children(context.Background(), nil, NewExpanded(""), nil)
	require.NoError(t, err)
	assert.Empty(t, children)
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

func TestResolve_RoundTrip(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel(), WithAttributeGrouping(true))
	ctx := context.Background()

	seen := make(map[string]bool)
	walk(t, e, func(n Node, _ []string) {
		token := e.ID(n)
		got, err := e.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, n, got, "round trip of %s", token)
		assert.Equal(t, token, e.ID(got))
		seen[e.Kind(n)] = true
	})
	assert.True(t, seen[KindResource])
	assert.True(t, seen[KindImported])
	assert.True(t, seen[KindAttributeGroup])
	assert.True(t, seen["table"])
}

func TestID_DeterministicAcrossComputations(t *testing.T) {
	first, _ := newTestExplorer(t, fixtureModel())
	second, _ := newTestExplorer(t, fixtureModel())

	collect := func(e *Explorer) []string {
		var ids []string
		walk(t, e, func(n Node, _ []string) { ids = append(ids, e.ID(n)) })
		return ids
	}
	a, b := collect(first), collect(second)
	assert.Equal(t, a, b)

	unique := make(map[string]bool, len(a))
	for _, id := range a {
		assert.False(t, unique[id], "duplicate id %s", id)
		unique[id] = true
	}
}

func TestID_SameTargetThroughTwoImports(t *testing.T) {
	doc := &graph.ModelDocument{Resources: []graph.ResourceDoc{
		{Path: "a.model", Elements: []graph.ElementDoc{
			{ID: "A", Kind: graph.ElementKindPackage, Name: "A", Elements: []graph.ElementDoc{
				{ID: "A.i1", Kind: graph.ElementKindPackageImport, Name: "first", Target: "B"},
				{ID: "A.i2", Kind: graph.ElementKindPackageImport, Name: "second", Target: "B"},
			}},
		}},
		{Path: "b.model", Elements: []graph.ElementDoc{
			{ID: "B", Kind: graph.ElementKindPackage, Name: "B"},
		}},
	}}
	e, _ := newTestExplorer(t, doc)

	p1 := expand(t, e, element(t, e, "A.i1"), "a.model", "A")
	p2 := expand(t, e, element(t, e, "A.i2"), "a.model", "A")
	require.Len(t, p1, 1)
	require.Len(t, p2, 1)
	assert.Equal(t, p1[0].(ImportedElementProjection).Element, p2[0].(ImportedElementProjection).Element)
	assert.NotEqual(t, e.ID(p1[0]), e.ID(p2[0]))
}

func TestResolve_StaleTokens(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	e, _ := newTestExplorer(t, fixtureModel(), WithLogger(logger))
	ctx := context.Background()

	for _, token := range []string{
		"",
		"no-such-element",
		"imported://?object=Q&import=I",
		"imported://?hash=00&import=C&object=Q",
		"imported://?hash=00&import=I&object=gone",
		"imported://?%zz",
		"attrgroup://?classifier=P&type=untyped",
		"attrgroup://?classifier=C&type=gone",
		"future://?x=1",
	} {
		n, err := e.Resolve(ctx, token)
		require.NoError(t, err, token)
		assert.Nil(t, n, token)
	}
	assert.Contains(t, logs.String(), "cannot resolve token")
	assert.Contains(t, logs.String(), "future://?x=1")
}

func TestResolve_BackendErrorsPropagate(t *testing.T) {
	store := graph.NewMemStore()
	_, err := graph.ApplyModel(context.Background(), store, fixtureModel())
	require.NoError(t, err)
	svc := NewStoreServices(store, nil)
	broken := &failingObjects{StoreServices: svc}
	e := New(broken, svc, svc)

	_, err = e.Resolve(context.Background(), "C")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackend)
	assert.False(t, isNotFound(err))
}

var errBackend = errors.New("backend down")

type failingObjects struct {
	*StoreServices
}

func (f *failingObjects) Resolve(context.Context, string) (*graph.Element, error) {
	return nil, errBackend
}

// ---------------------------------------------------------------------------
// Parent, labels and edit permissions
// ---------------------------------------------------------------------------

func TestParent(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel(), WithAttributeGrouping(true))
	ctx := context.Background()

	parentID := func(token string) string {
		t.Helper()
		n, err := e.Resolve(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, n, token)
		p, err := e.Parent(ctx, n)
		require.NoError(t, err)
		if p == nil {
			return ""
		}
		return e.ID(p)
	}

	assert.Equal(t, "models/p.model", parentID("P"))
	assert.Equal(t, "P", parentID("C"))
	assert.Equal(t, "C", parentID("C.x"))
	assert.Equal(t, "C", parentID("rep-Alpha"))
	assert.Equal(t, "", parentID("models/p.model"))
	assert.Equal(t, "C", parentID("attrgroup://?classifier=C&type=int"))
	assert.Equal(t, "I", parentID("imported://?hash=1&import=I&object=D"))
}

func TestLabelKindIcons(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel(), WithAttributeGrouping(true))

	c := element(t, e, "C")
	assert.Equal(t, "C", e.Label(c))
	assert.Equal(t, "model::class", e.Kind(c))
	assert.Equal(t, []string{"icons/class.svg"}, e.Icons(c))
	require.NotNil(t, c.Abstract)
	assert.False(t, *c.Abstract)
	assert.Nil(t, c.Static, "classes have no static flag")

	x := element(t, e, "C.x")
	require.NotNil(t, x.Static)
	assert.Nil(t, x.Abstract, "properties have no abstract flag")

	groups := expand(t, e, c, "models/p.model", "P")
	group := groups[len(groups)-1]
	assert.Equal(t, "int", e.Label(group))
	assert.Equal(t, KindAttributeGroup, e.Kind(group))

	untyped := AttributeTypeGroup{Classifier: c}
	assert.Equal(t, "<untyped>", e.Label(untyped))

	proj := ImportedElementProjection{Element: element(t, e, "Q"), ImportID: "I", Hash: "h"}
	assert.Equal(t, "Q", e.Label(proj))
	assert.Equal(t, []string{"icons/package.svg", "icons/overlays/imported.svg"}, e.Icons(proj))
}

func TestCanDeleteAndRename(t *testing.T) {
	e, _ := newTestExplorer(t, fixtureModel(), WithAttributeGrouping(true))
	ctx := context.Background()

	resolve := func(token string) Node {
		t.Helper()
		n, err := e.Resolve(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, n, token)
		return n
	}

	tests := []struct {
		token  string
		delete bool
		rename bool
	}{
		{"models/p.model", true, true},
		{"lib/types.model", false, false},
		{"C", true, true},
		{"I", true, false},
		{"int", false, false},
		{"rep-beta", true, true},
		{"attrgroup://?classifier=C&type=int", false, false},
		{"imported://?hash=1&import=I&object=Q", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			n := resolve(tt.token)
			assert.Equal(t, tt.delete, e.CanDelete(ctx, n))
			assert.Equal(t, tt.rename, e.CanRename(ctx, n))
		})
	}
}
