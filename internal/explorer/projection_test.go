package explorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// classifierModel has a class K whose attributes use int twice, string once,
// and no type or a dangling type twice.
func classifierModel() *graph.ModelDocument {
	return &graph.ModelDocument{Resources: []graph.ResourceDoc{
		{Path: "k.model", Elements: []graph.ElementDoc{
			{ID: "K", Kind: graph.ElementKindClass, Name: "K", Elements: []graph.ElementDoc{
				{ID: "K.a", Kind: graph.ElementKindProperty, Name: "a", Type: "int"},
				{ID: "K.b", Kind: graph.ElementKindProperty, Name: "b", Type: "string"},
				{ID: "K.c", Kind: graph.ElementKindProperty, Name: "c"},
				{ID: "K.run", Kind: graph.ElementKindOperation, Name: "run"},
				{ID: "K.d", Kind: graph.ElementKindProperty, Name: "d", Type: "int"},
				{ID: "K.e", Kind: graph.ElementKindProperty, Name: "e"},
			}},
			{ID: "Empty", Kind: graph.ElementKindClass, Name: "Empty"},
		}},
		{Path: "types.model", ReadOnly: true, Elements: []graph.ElementDoc{
			{ID: "int", Kind: graph.ElementKindPrimitiveType, Name: "int"},
			{ID: "string", Kind: graph.ElementKindPrimitiveType, Name: "string"},
		}},
	}}
}

func groupsOf(t *testing.T, nodes []Node) []AttributeTypeGroup {
	t.Helper()
	var out []AttributeTypeGroup
	for _, n := range nodes {
		if g, ok := n.(AttributeTypeGroup); ok {
			out = append(out, g)
		}
	}
	return out
}

func TestAttributeGroups_Partition(t *testing.T) {
	e, store := newTestExplorer(t, classifierModel(), WithAttributeGrouping(true))
	ctx := context.Background()

	// A type that vanished after loading behaves like no type at all.
	dangling, err := store.GetElement(ctx, "K.e")
	require.NoError(t, err)
	dangling.TypeID = "deleted-type"
	require.NoError(t, store.AddElement(ctx, *dangling))

	k := element(t, e, "K")
	children := expand(t, e, k, "k.model")
	assert.Equal(t, []string{"a", "b", "c", "run", "d", "e", "int", "string", "<untyped>"}, labels(e, children))

	groups := groupsOf(t, children)
	require.Len(t, groups, 3)

	members := make(map[string]string)
	for _, g := range groups {
		for _, m := range expand(t, e, g, "k.model", "K") {
			id := e.ID(m)
			prev, dup := members[id]
			assert.False(t, dup, "%s is in groups %s and %s", id, prev, e.Label(g))
			members[id] = e.Label(g)
		}
	}
	assert.Equal(t, map[string]string{
		"K.a": "int",
		"K.d": "int",
		"K.b": "string",
		"K.c": "<untyped>",
		"K.e": "<untyped>",
	}, members)
}

func TestAttributeGroups_Disabled(t *testing.T) {
	e, _ := newTestExplorer(t, classifierModel())

	children := expand(t, e, element(t, e, "K"), "k.model")
	assert.Empty(t, groupsOf(t, children))
	assert.Len(t, children, 6)
}

func TestAttributeGroups_ClassWithoutAttributes(t *testing.T) {
	e, _ := newTestExplorer(t, classifierModel(), WithAttributeGrouping(true))
	empty := element(t, e, "Empty")

	has, err := e.HasChildren(context.Background(), empty)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, expand(t, e, empty, "k.model"))
}

func TestAttributeGroups_StaleGroupIsEmpty(t *testing.T) {
	e, _ := newTestExplorer(t, classifierModel(), WithAttributeGrouping(true))
	typ := element(t, e, "string")
	g := AttributeTypeGroup{Classifier: element(t, e, "Empty"), Type: &typ}

	has, err := e.HasChildren(context.Background(), g)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, expand(t, e, g))
}

func TestImportShadowing_UnresolvedTarget(t *testing.T) {
	doc := &graph.ModelDocument{Resources: []graph.ResourceDoc{
		{Path: "a.model", Elements: []graph.ElementDoc{
			{ID: "A", Kind: graph.ElementKindPackage, Name: "A", Elements: []graph.ElementDoc{
				{ID: "A.imp", Kind: graph.ElementKindElementImport, Name: "external"},
			}},
		}},
	}}
	e, _ := newTestExplorer(t, doc)
	imp := element(t, e, "A.imp")

	has, err := e.HasChildren(context.Background(), imp)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, expand(t, e, imp, "a.model", "A"))
}

func TestProjection_ChildrenKeepRepresentations(t *testing.T) {
	doc := fixtureModel()
	doc.Representations = append(doc.Representations, graph.RepresentationDoc{
		ID: "rep-q", Label: "Q overview", Kind: "diagram", Target: "Q",
	})
	e, _ := newTestExplorer(t, doc)

	proj := ImportedElementProjection{Element: element(t, e, "Q"), ImportID: "I", Hash: "h"}
	children := expand(t, e, proj, "models/p.model", "P", "I")
	require.Len(t, children, 3)
	assert.Equal(t, RepresentationRecord{ID: "rep-q", Label: "Q overview", Kind: "diagram", TargetID: "Q"}, children[0])
	assert.IsType(t, ImportedElementProjection{}, children[1])
	assert.IsType(t, ImportedElementProjection{}, children[2])
}

func TestProjection_AttributeGroupsStayProjected(t *testing.T) {
	doc := fixtureModel()
	d := &doc.Resources[1].Elements[0].Elements[0]
	require.Equal(t, "D", d.ID)
	d.Elements = []graph.ElementDoc{{ID: "D.y", Kind: graph.ElementKindProperty, Name: "y", Type: "int"}}
	e, _ := newTestExplorer(t, doc, WithAttributeGrouping(true))
	ctx := context.Background()

	proj := ImportedElementProjection{Element: element(t, e, "D"), ImportID: "I", Hash: "h"}
	children := expand(t, e, proj, "models/p.model", "P", "I")
	assert.Equal(t, []string{"y", "int"}, labels(e, children))
	assert.IsType(t, ImportedElementProjection{}, children[0])

	groups := groupsOf(t, children)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "I", g.ImportID)
	assert.NotEmpty(t, g.Hash)
	assert.Contains(t, e.ID(g), "import=I")

	decoded, err := e.Resolve(ctx, e.ID(g))
	require.NoError(t, err)
	assert.Equal(t, g, decoded)

	parent, err := e.Parent(ctx, g)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, "I", e.ID(parent))

	members := expand(t, e, g, "models/p.model", "P", "I", e.ID(proj))
	require.Len(t, members, 1)
	m, ok := members[0].(ImportedElementProjection)
	require.True(t, ok, "got %T", members[0])
	assert.Equal(t, "D.y", m.Element.ID)
	assert.Equal(t, "I", m.ImportID)
	assert.NotEqual(t, e.ID(children[0]), e.ID(m), "same attribute at two paths needs two tokens")
	assert.False(t, e.CanDelete(ctx, m))
	assert.False(t, e.CanRename(ctx, m))

	// The same group outside the import stays editable.
	plain := groupsOf(t, expand(t, e, element(t, e, "D"), "models/q.model", "Q"))
	require.Len(t, plain, 1)
	assert.Empty(t, plain[0].ImportID)
	direct := expand(t, e, plain[0], "models/q.model", "Q", "D")
	require.Len(t, direct, 1)
	assert.IsType(t, SemanticElement{}, direct[0])
	assert.True(t, e.CanDelete(ctx, direct[0]))
}
