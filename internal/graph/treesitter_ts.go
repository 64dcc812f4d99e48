package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor maps a TypeScript module onto the model: classes and
// interfaces with their fields and methods, enums with their members,
// type aliases as datatypes and import statements.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte, m *fileModel) {
	mod := m.add("", ElementKindPackage, moduleName(m.path))
	for _, c := range namedChildren(root) {
		e.extractStatement(c, source, m, mod)
	}
}

func (e *tsExtractor) extractStatement(node *tree_sitter.Node, source []byte, m *fileModel, mod string) {
	switch node.Kind() {
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			e.extractStatement(decl, source, m, mod)
		}

	case "import_statement":
		if spec := e.importSource(node, source); spec != "" {
			m.addImport(mod, spec)
		}

	case "class_declaration", "abstract_class_declaration":
		name := fieldText(node, "name", source)
		if name == "" {
			return
		}
		id := m.add(mod, ElementKindClass, name)
		m.find(id).Abstract = Bool(node.Kind() == "abstract_class_declaration")
		e.extractMembers(node.ChildByFieldName("body"), source, m, id)

	case "interface_declaration":
		name := fieldText(node, "name", source)
		if name == "" {
			return
		}
		id := m.add(mod, ElementKindInterface, name)
		m.find(id).Abstract = Bool(true)
		e.extractMembers(node.ChildByFieldName("body"), source, m, id)

	case "enum_declaration":
		name := fieldText(node, "name", source)
		if name == "" {
			return
		}
		id := m.add(mod, ElementKindEnumeration, name)
		for _, member := range namedChildren(node.ChildByFieldName("body")) {
			switch member.Kind() {
			case "property_identifier":
				m.add(id, ElementKindEnumerationLiteral, member.Utf8Text(source))
			case "enum_assignment":
				if lit := fieldText(member, "name", source); lit != "" {
					m.add(id, ElementKindEnumerationLiteral, lit)
				}
			}
		}

	case "type_alias_declaration":
		if name := fieldText(node, "name", source); name != "" {
			m.add(mod, ElementKindDataType, name)
		}

	case "function_declaration":
		if name := fieldText(node, "name", source); name != "" {
			op := m.add(mod, ElementKindOperation, name)
			m.find(op).Static = Bool(true)
			m.find(op).Abstract = Bool(false)
		}

	case "comment":
		text := strings.TrimSpace(node.Utf8Text(source))
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(text, "//"), "/*"), "*/"))
		m.add(mod, ElementKindComment, text)
	}
}

// extractMembers handles class_body and interface bodies alike.
func (e *tsExtractor) extractMembers(body *tree_sitter.Node, source []byte, m *fileModel, owner string) {
	for _, member := range namedChildren(body) {
		name := fieldText(member, "name", source)
		if name == "" {
			continue
		}
		switch member.Kind() {
		case "public_field_definition", "property_signature":
			id := m.addAttribute(owner, name, fieldText(member, "type", source))
			m.find(id).Static = Bool(hasChildKind(member, "static"))
		case "method_definition", "method_signature", "abstract_method_signature":
			op := m.add(owner, ElementKindOperation, name)
			m.find(op).Static = Bool(hasChildKind(member, "static"))
			m.find(op).Abstract = Bool(member.Kind() != "method_definition")
		}
	}
}

func (e *tsExtractor) importSource(node *tree_sitter.Node, source []byte) string {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		for _, c := range namedChildren(node) {
			if c.Kind() == "string" {
				sourceNode = c
				break
			}
		}
	}
	if sourceNode == nil {
		return ""
	}
	return strings.Trim(sourceNode.Utf8Text(source), "\"'`")
}
