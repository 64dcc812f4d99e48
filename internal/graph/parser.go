package graph

import (
	"context"
	"path"
	"strconv"
	"strings"
)

// ParseResult holds the model extracted from a single source file: one
// resource, its elements in containment pre-order, and the raw references
// that can only be resolved once every file has been parsed.
type ParseResult struct {
	Resource Resource    `json:"resource"`
	Language Language    `json:"language"`
	Elements []Element   `json:"elements"`
	Imports  []ImportRef `json:"imports,omitempty"`
	TypeRefs []TypeRef   `json:"typeRefs,omitempty"`
}

// ImportRef links an import statement element to its raw specifier.
type ImportRef struct {
	ElementID string `json:"elementId"`
	Specifier string `json:"specifier"`
}

// TypeRef links an attribute element to the raw name of its type.
type TypeRef struct {
	ElementID string `json:"elementId"`
	TypeName  string `json:"typeName"`
}

// Parser extracts a model from source files.
// Implementations: TreeSitterParser (production), stub parsers in tests.
type Parser interface {
	// Parse extracts the model of a single source file.
	// source is the file content. lang determines which grammar to use.
	Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []Language

	// Close releases parser resources (Tree-sitter C memory).
	Close() error
}

// fileModel accumulates the elements of one file while an extractor walks it.
// Element ids are "<path>#<qualified name>", which keeps them stable across
// re-indexing as long as the declaration keeps its name.
type fileModel struct {
	path      string
	elements  []Element
	imports   []ImportRef
	typeRefs  []TypeRef
	positions map[string]int // owner id -> next position
	seen      map[string]int // id -> occurrences, for duplicate names
}

func newFileModel(filePath string) *fileModel {
	return &fileModel{
		path:      filePath,
		positions: make(map[string]int),
		seen:      make(map[string]int),
	}
}

// moduleName derives a package/module name from the file name.
func moduleName(filePath string) string {
	base := path.Base(filePath)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// add appends an element owned by ownerID and returns its id. An empty
// ownerID makes the element top-level in the file's resource.
func (m *fileModel) add(ownerID string, kind ElementKind, name string) string {
	qualified := name
	if ownerID != "" {
		if owner := m.find(ownerID); owner != nil && owner.OwnerID != "" {
			qualified = strings.TrimPrefix(ownerID, m.path+"#") + "." + name
		}
	}
	id := m.path + "#" + qualified
	if n := m.seen[id]; n > 0 {
		m.seen[id] = n + 1
		id = id + "~" + strconv.Itoa(n)
	} else {
		m.seen[id] = 1
	}
	pos := m.positions[ownerID]
	m.positions[ownerID] = pos + 1
	m.elements = append(m.elements, Element{
		ID:       id,
		Kind:     kind,
		Name:     name,
		OwnerID:  ownerID,
		Resource: m.path,
		Position: pos,
	})
	return id
}

// find returns a pointer into m.elements for id, or nil.
func (m *fileModel) find(id string) *Element {
	for i := range m.elements {
		if m.elements[i].ID == id {
			return &m.elements[i]
		}
	}
	return nil
}

func (m *fileModel) addImport(ownerID, specifier string) string {
	id := m.add(ownerID, ElementKindPackageImport, specifier)
	m.imports = append(m.imports, ImportRef{ElementID: id, Specifier: specifier})
	return id
}

func (m *fileModel) addAttribute(ownerID, name, typeName string) string {
	id := m.add(ownerID, ElementKindProperty, name)
	m.find(id).Static = Bool(false)
	if typeName = normalizeTypeName(typeName); typeName != "" {
		m.typeRefs = append(m.typeRefs, TypeRef{ElementID: id, TypeName: typeName})
	}
	return id
}

func (m *fileModel) result(lang Language) *ParseResult {
	return &ParseResult{
		Resource: Resource{Path: m.path},
		Language: lang,
		Elements: m.elements,
		Imports:  m.imports,
		TypeRefs: m.typeRefs,
	}
}

// normalizeTypeName reduces a type expression to the name of its base type:
// "*pkg.User" -> "User", "[]string" -> "string", "Option<Box<T>>" -> "Option",
// ": number" -> "number". Unions and other composite forms keep their first
// named component.
func normalizeTypeName(t string) string {
	t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), ":"))
	for {
		trimmed := strings.TrimLeft(t, "*&[] ")
		if strings.HasPrefix(trimmed, "map[") {
			if i := strings.IndexByte(trimmed, ']'); i >= 0 {
				trimmed = trimmed[i+1:]
			}
		}
		if trimmed == t {
			break
		}
		t = trimmed
	}
	t = strings.TrimPrefix(t, "mut ")
	if i := strings.IndexAny(t, "<[|( ,"); i > 0 {
		t = t[:i]
	}
	if i := strings.LastIndexAny(t, ".:"); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(t)
}
