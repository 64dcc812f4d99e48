package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every Store implementation shares.
// newStore must return an empty store with an initialized schema.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("ResourceRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "models/b.model", Label: "B"}))
		require.NoError(t, s.AddResource(ctx, Resource{Path: "models/a.model", ReadOnly: true}))

		got, err := s.GetResource(ctx, "models/a.model")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, Resource{Path: "models/a.model", ReadOnly: true}, *got)

		missing, err := s.GetResource(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		all, err := s.ListResources(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "models/b.model", all[0].Path, "insertion order")
		assert.Equal(t, "B", all[0].Label)
	})

	t.Run("ResourceReAddKeepsContents", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "r#A", Kind: ElementKindPackage, Name: "A", Resource: "r"}))
		require.NoError(t, s.AddResource(ctx, Resource{Path: "r", Label: "renamed"}))

		got, err := s.GetResource(ctx, "r")
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Label)

		contents, err := s.ResourceContents(ctx, "r")
		require.NoError(t, err)
		assert.Len(t, contents, 1)

		all, err := s.ListResources(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ElementRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "r"}))
		pkg := Element{ID: "r#P", Kind: ElementKindPackage, Name: "P", Resource: "r"}
		op := Element{
			ID:       "r#P.run",
			Kind:     ElementKindOperation,
			Name:     "run",
			OwnerID:  "r#P",
			Resource: "r",
			Static:   Bool(true),
			Abstract: Bool(false),
			Tags:     []string{"deprecated", "internal"},
			Position: 3,
		}
		require.NoError(t, s.AddElement(ctx, pkg))
		require.NoError(t, s.AddElement(ctx, op))

		got, err := s.GetElement(ctx, "r#P.run")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, op, *got)

		got, err = s.GetElement(ctx, "r#P")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.Static, "absent flags stay absent")
		assert.Nil(t, got.Abstract)
		assert.Empty(t, got.Tags)

		missing, err := s.GetElement(ctx, "r#Q")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ContentsOrderedByPosition", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "B", Kind: ElementKindPackage, Name: "B", Resource: "r", Position: 1}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "A", Kind: ElementKindPackage, Name: "A", Resource: "r", Position: 0}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "A.z", Kind: ElementKindClass, Name: "z", OwnerID: "A", Resource: "r", Position: 2}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "A.x", Kind: ElementKindClass, Name: "x", OwnerID: "A", Resource: "r", Position: 0}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "A.y", Kind: ElementKindComment, Name: "y", OwnerID: "A", Resource: "r", Position: 1}))

		top, err := s.ResourceContents(ctx, "r")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, elementIDs(top))

		owned, err := s.Contents(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"A.x", "A.y", "A.z"}, elementIDs(owned))

		none, err := s.Contents(ctx, "B")
		require.NoError(t, err)
		assert.Empty(t, none)

		none, err = s.ResourceContents(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Representations", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "C", Kind: ElementKindClass, Name: "C", Resource: "r"}))
		d := Representation{ID: "d1", Label: "Overview", Kind: "diagram", TargetID: "C"}
		tb := Representation{ID: "t1", Label: "Attributes", Kind: "table", TargetID: "C"}
		require.NoError(t, s.AddRepresentation(ctx, d))
		require.NoError(t, s.AddRepresentation(ctx, tb))

		reps, err := s.RepresentationsByTarget(ctx, "C")
		require.NoError(t, err)
		assert.Equal(t, []Representation{d, tb}, reps)

		has, err := s.HasRepresentations(ctx, "C")
		require.NoError(t, err)
		assert.True(t, has)

		has, err = s.HasRepresentations(ctx, "other")
		require.NoError(t, err)
		assert.False(t, has)

		got, err := s.GetRepresentation(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, tb, *got)

		missing, err := s.GetRepresentation(ctx, "x")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AddResource(ctx, Resource{Path: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "P", Kind: ElementKindPackage, Name: "P", Resource: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "P.i", Kind: ElementKindPackageImport, Name: "i", OwnerID: "P", Resource: "r"}))
		require.NoError(t, s.AddElement(ctx, Element{ID: "P.e", Kind: ElementKindElementImport, Name: "e", OwnerID: "P", Resource: "r", Position: 1}))
		require.NoError(t, s.AddRepresentation(ctx, Representation{ID: "d", Label: "d", Kind: "diagram", TargetID: "P"}))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, GraphStats{ResourceCount: 1, ElementCount: 3, RepresentationCount: 1, ImportCount: 2}, *stats)
	})
}

func elementIDs(elems []Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.ID
	}
	return out
}
