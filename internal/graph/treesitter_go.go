package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor maps a Go file onto the model: the package clause becomes a
// package element owning imports, types (struct -> class, interface ->
// interface, anything else -> datatype), functions and top-level comments.
// Struct fields become typed attributes; methods are owned by their receiver
// type when it is declared in the same file.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte, m *fileModel) {
	pkgName := moduleName(m.path)
	for _, c := range namedChildren(root) {
		if c.Kind() != "package_clause" {
			continue
		}
		for _, n := range namedChildren(c) {
			if n.Kind() == "package_identifier" {
				pkgName = n.Utf8Text(source)
			}
		}
	}
	pkg := m.add("", ElementKindPackage, pkgName)

	types := make(map[string]string)
	var methods []*tree_sitter.Node

	for _, c := range namedChildren(root) {
		switch c.Kind() {
		case "import_declaration":
			e.extractImports(c, source, m, pkg)

		case "type_declaration":
			for _, spec := range namedChildren(c) {
				if spec.Kind() != "type_spec" && spec.Kind() != "type_alias" {
					continue
				}
				name := fieldText(spec, "name", source)
				if name == "" {
					continue
				}
				types[name] = e.extractTypeSpec(spec, name, source, m, pkg)
			}

		case "function_declaration":
			name := fieldText(c, "name", source)
			if name == "" {
				continue
			}
			op := m.add(pkg, ElementKindOperation, name)
			m.find(op).Static = Bool(true)
			m.find(op).Abstract = Bool(false)

		case "method_declaration":
			methods = append(methods, c)

		case "comment":
			m.add(pkg, ElementKindComment, strings.TrimSpace(strings.TrimPrefix(c.Utf8Text(source), "//")))
		}
	}

	for _, meth := range methods {
		name := fieldText(meth, "name", source)
		if name == "" {
			continue
		}
		owner := pkg
		if recv := e.receiverType(meth, source); recv != "" {
			if id, ok := types[recv]; ok {
				owner = id
			}
		}
		op := m.add(owner, ElementKindOperation, name)
		m.find(op).Static = Bool(false)
		m.find(op).Abstract = Bool(false)
	}
}

func (e *goExtractor) extractImports(node *tree_sitter.Node, source []byte, m *fileModel, pkg string) {
	for _, c := range namedChildren(node) {
		switch c.Kind() {
		case "import_spec":
			if p := e.importPath(c, source); p != "" {
				m.addImport(pkg, p)
			}
		case "import_spec_list":
			for _, spec := range namedChildren(c) {
				if spec.Kind() != "import_spec" {
					continue
				}
				if p := e.importPath(spec, source); p != "" {
					m.addImport(pkg, p)
				}
			}
		}
	}
}

func (e *goExtractor) importPath(spec *tree_sitter.Node, source []byte) string {
	pathNode := spec.ChildByFieldName("path")
	if pathNode == nil {
		// Fall back to finding an interpreted_string_literal child.
		for _, c := range namedChildren(spec) {
			if c.Kind() == "interpreted_string_literal" {
				pathNode = c
				break
			}
		}
	}
	if pathNode == nil {
		return ""
	}
	return strings.Trim(pathNode.Utf8Text(source), "\"`")
}

func (e *goExtractor) extractTypeSpec(spec *tree_sitter.Node, name string, source []byte, m *fileModel, pkg string) string {
	typeNode := spec.ChildByFieldName("type")
	kind := ElementKindDataType
	if typeNode != nil {
		switch typeNode.Kind() {
		case "struct_type":
			kind = ElementKindClass
		case "interface_type":
			kind = ElementKindInterface
		}
	}

	id := m.add(pkg, kind, name)
	if kind.SupportsAbstract() {
		m.find(id).Abstract = Bool(kind == ElementKindInterface)
	}
	if typeNode == nil {
		return id
	}

	switch kind {
	case ElementKindClass:
		for _, list := range namedChildren(typeNode) {
			if list.Kind() != "field_declaration_list" {
				continue
			}
			for _, field := range namedChildren(list) {
				if field.Kind() == "field_declaration" {
					e.extractField(field, source, m, id)
				}
			}
		}
	case ElementKindInterface:
		for _, c := range namedChildren(typeNode) {
			if c.Kind() != "method_elem" && c.Kind() != "method_spec" {
				continue
			}
			if opName := fieldText(c, "name", source); opName != "" {
				op := m.add(id, ElementKindOperation, opName)
				m.find(op).Static = Bool(false)
				m.find(op).Abstract = Bool(true)
			}
		}
	}
	return id
}

// extractField adds one attribute per declared name; embedded fields are
// named after their type.
func (e *goExtractor) extractField(field *tree_sitter.Node, source []byte, m *fileModel, owner string) {
	typeText := fieldText(field, "type", source)
	var names []string
	for _, c := range namedChildren(field) {
		if c.Kind() == "field_identifier" {
			names = append(names, c.Utf8Text(source))
		}
	}
	if len(names) == 0 {
		if base := normalizeTypeName(typeText); base != "" {
			names = append(names, base)
		}
	}
	for _, n := range names {
		m.addAttribute(owner, n, typeText)
	}
}

// receiverType returns the base type name of a method receiver.
func (e *goExtractor) receiverType(meth *tree_sitter.Node, source []byte) string {
	recv := meth.ChildByFieldName("receiver")
	for _, param := range namedChildren(recv) {
		if param.Kind() == "parameter_declaration" {
			return normalizeTypeName(fieldText(param, "type", source))
		}
	}
	return ""
}
