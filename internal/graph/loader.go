package graph

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// modelNamespace scopes the name-based UUIDs minted for YAML entities that
// carry no explicit id, so reloading the same document yields the same ids.
var modelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dusk-indust/modelexplorer/model"))

// ModelDocument is the YAML form of a domain graph.
type ModelDocument struct {
	Resources       []ResourceDoc       `yaml:"resources"`
	Representations []RepresentationDoc `yaml:"representations,omitempty"`
}

// ResourceDoc describes one resource and its top-level elements.
type ResourceDoc struct {
	Path     string       `yaml:"path"`
	Label    string       `yaml:"label,omitempty"`
	ReadOnly bool         `yaml:"readOnly,omitempty"`
	Elements []ElementDoc `yaml:"elements,omitempty"`
}

// ElementDoc describes an element and, recursively, the elements it owns.
// Type and Target accept either an element id or a qualified name ("P::C").
type ElementDoc struct {
	ID       string       `yaml:"id,omitempty"`
	Kind     ElementKind  `yaml:"kind"`
	Name     string       `yaml:"name,omitempty"`
	Type     string       `yaml:"type,omitempty"`
	Target   string       `yaml:"target,omitempty"`
	Static   *bool        `yaml:"static,omitempty"`
	Abstract *bool        `yaml:"abstract,omitempty"`
	Tags     []string     `yaml:"tags,omitempty"`
	Elements []ElementDoc `yaml:"elements,omitempty"`
}

// RepresentationDoc describes a representation; Target accepts an element id
// or a qualified name.
type RepresentationDoc struct {
	ID     string `yaml:"id,omitempty"`
	Label  string `yaml:"label"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
}

// LoadModel decodes a YAML model document from r and adds its resources,
// elements and representations to store.
func LoadModel(ctx context.Context, store Store, r io.Reader) (*GraphStats, error) {
	var doc ModelDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return ApplyModel(ctx, store, &doc)
}

// LoadModelFile opens path and loads it with LoadModel.
func LoadModelFile(ctx context.Context, store Store, path string) (*GraphStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	stats, err := LoadModel(ctx, store, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// ApplyModel adds the contents of doc to store. References are resolved after
// every element has been assigned an id, so forward references are allowed.
func ApplyModel(ctx context.Context, store Store, doc *ModelDocument) (*GraphStats, error) {
	b := &modelBuilder{byQualified: make(map[string]string), byID: make(map[string]bool)}
	for _, res := range doc.Resources {
		if res.Path == "" {
			return nil, fmt.Errorf("resource without path")
		}
		for i := range res.Elements {
			b.flatten(res.Path, "", "", i, &res.Elements[i])
		}
	}

	for i := range b.pending {
		p := &b.pending[i]
		if p.doc.Type != "" {
			id, ok := b.lookup(p.doc.Type)
			if !ok {
				return nil, fmt.Errorf("element %s: unknown type %q", p.elem.ID, p.doc.Type)
			}
			p.elem.TypeID = id
		}
		if p.doc.Target != "" {
			id, ok := b.lookup(p.doc.Target)
			if !ok {
				return nil, fmt.Errorf("element %s: unknown import target %q", p.elem.ID, p.doc.Target)
			}
			p.elem.ImportTarget = id
		}
	}

	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	for _, res := range doc.Resources {
		if err := store.AddResource(ctx, Resource{Path: res.Path, Label: res.Label, ReadOnly: res.ReadOnly}); err != nil {
			return nil, fmt.Errorf("add resource %s: %w", res.Path, err)
		}
	}
	// pending is in pre-order, so owners are always added before their contents.
	for _, p := range b.pending {
		if err := store.AddElement(ctx, p.elem); err != nil {
			return nil, fmt.Errorf("add element %s: %w", p.elem.ID, err)
		}
	}
	for _, rd := range doc.Representations {
		target, ok := b.lookup(rd.Target)
		if !ok {
			return nil, fmt.Errorf("representation %q: unknown target %q", rd.Label, rd.Target)
		}
		id := rd.ID
		if id == "" {
			id = uuid.NewSHA1(modelNamespace, []byte("representation:"+target+"/"+rd.Kind+"/"+rd.Label)).String()
		}
		rep := Representation{ID: id, Label: rd.Label, Kind: rd.Kind, TargetID: target}
		if err := store.AddRepresentation(ctx, rep); err != nil {
			return nil, fmt.Errorf("add representation %s: %w", id, err)
		}
	}
	return store.Stats(ctx)
}

type pendingElement struct {
	elem Element
	doc  *ElementDoc
}

type modelBuilder struct {
	pending     []pendingElement
	byQualified map[string]string
	byID        map[string]bool
}

func (b *modelBuilder) flatten(resource, ownerID, ownerQualified string, position int, doc *ElementDoc) {
	qualified := doc.Name
	if ownerQualified != "" {
		qualified = ownerQualified + "::" + doc.Name
	}
	id := doc.ID
	if id == "" {
		id = uuid.NewSHA1(modelNamespace, fmt.Appendf(nil, "%s/%s/%d", resource, qualified, position)).String()
	}
	b.byID[id] = true
	if doc.Name != "" {
		if _, dup := b.byQualified[qualified]; !dup {
			b.byQualified[qualified] = id
		}
	}
	b.pending = append(b.pending, pendingElement{
		elem: Element{
			ID:       id,
			Kind:     doc.Kind,
			Name:     doc.Name,
			OwnerID:  ownerID,
			Resource: resource,
			Static:   doc.Static,
			Abstract: doc.Abstract,
			Tags:     doc.Tags,
			Position: position,
		},
		doc: doc,
	})
	for i := range doc.Elements {
		b.flatten(resource, id, qualified, i, &doc.Elements[i])
	}
}

// lookup resolves an element reference by id first, then by qualified name.
func (b *modelBuilder) lookup(ref string) (string, bool) {
	if b.byID[ref] {
		return ref, true
	}
	id, ok := b.byQualified[ref]
	return id, ok
}
