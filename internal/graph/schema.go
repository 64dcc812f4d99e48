package graph

// --- Enums ---

// ElementKind classifies elements of the domain graph.
type ElementKind string

const (
	ElementKindModel              ElementKind = "model"
	ElementKindPackage            ElementKind = "package"
	ElementKindClass              ElementKind = "class"
	ElementKindInterface          ElementKind = "interface"
	ElementKindDataType           ElementKind = "datatype"
	ElementKindPrimitiveType      ElementKind = "primitive"
	ElementKindEnumeration        ElementKind = "enumeration"
	ElementKindEnumerationLiteral ElementKind = "literal"
	ElementKindProperty           ElementKind = "property"
	ElementKindOperation          ElementKind = "operation"
	ElementKindPackageImport      ElementKind = "package_import"
	ElementKindElementImport      ElementKind = "element_import"
	ElementKindComment            ElementKind = "comment"
	ElementKindAnnotation         ElementKind = "annotation"
)

// IsSemantic reports whether elements of this kind are real model elements.
// Comments and annotations only decorate other elements.
func (k ElementKind) IsSemantic() bool {
	switch k {
	case ElementKindComment, ElementKindAnnotation, "":
		return false
	}
	return true
}

// IsImport reports whether the kind is an import statement.
func (k ElementKind) IsImport() bool {
	return k == ElementKindPackageImport || k == ElementKindElementImport
}

// IsStructuredClassifier reports whether the kind owns typed attributes.
func (k ElementKind) IsStructuredClassifier() bool {
	switch k {
	case ElementKindClass, ElementKindInterface, ElementKindDataType:
		return true
	}
	return false
}

// IsAttribute reports whether the kind is an owned attribute.
func (k ElementKind) IsAttribute() bool {
	return k == ElementKindProperty
}

// SupportsStatic reports whether elements of this kind carry a static flag.
func (k ElementKind) SupportsStatic() bool {
	return k == ElementKindProperty || k == ElementKindOperation
}

// SupportsAbstract reports whether elements of this kind carry an abstract flag.
func (k ElementKind) SupportsAbstract() bool {
	switch k {
	case ElementKindClass, ElementKindInterface, ElementKindOperation:
		return true
	}
	return false
}

// Language identifies a programming language for the source importer.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// Tier1Languages are the languages the source importer understands.
var Tier1Languages = []Language{LangGo, LangTypeScript, LangPython, LangRust}

// --- Models ---

// Resource is a model document: the unit of loading and of read-only policy.
type Resource struct {
	Path     string `json:"path"`
	Label    string `json:"label,omitempty"` // explicit metadata label, may be empty
	ReadOnly bool   `json:"readOnly,omitempty"`
}

// Element is a node of the containment tree. OwnerID is empty for the
// top-level elements of a resource.
type Element struct {
	ID           string      `json:"id"`
	Kind         ElementKind `json:"kind"`
	Name         string      `json:"name"`
	OwnerID      string      `json:"ownerId,omitempty"`
	Resource     string      `json:"resource"`
	TypeID       string      `json:"typeId,omitempty"`       // attributes only
	ImportTarget string      `json:"importTarget,omitempty"` // import statements only
	Static       *bool       `json:"static,omitempty"`
	Abstract     *bool       `json:"abstract,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	Position     int         `json:"position"` // order among siblings
}

// Representation is a view (diagram, table, form) attached to an element.
type Representation struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	TargetID string `json:"targetId"`
}

// GraphStats summarizes a domain graph.
type GraphStats struct {
	ResourceCount       int `json:"resourceCount"`
	ElementCount        int `json:"elementCount"`
	RepresentationCount int `json:"representationCount"`
	ImportCount         int `json:"importCount"`
}

// Bool returns a pointer to b, for the optional Element flags.
func Bool(b bool) *bool {
	return &b
}
