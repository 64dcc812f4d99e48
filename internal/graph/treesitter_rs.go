package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsExtractor maps a Rust source file onto the model: structs become classes
// with typed attributes, traits become interfaces, enums keep their variants,
// use declarations become imports. Inline modules nest as packages.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte, m *fileModel) {
	mod := m.add("", ElementKindPackage, moduleName(m.path))
	e.extractItems(root, source, m, mod)
}

func (e *rsExtractor) extractItems(parent *tree_sitter.Node, source []byte, m *fileModel, owner string) {
	for _, c := range namedChildren(parent) {
		switch c.Kind() {
		case "use_declaration":
			if arg := fieldText(c, "argument", source); arg != "" {
				m.addImport(owner, arg)
			}

		case "mod_item":
			name := fieldText(c, "name", source)
			if name == "" {
				continue
			}
			sub := m.add(owner, ElementKindPackage, name)
			if body := c.ChildByFieldName("body"); body != nil {
				e.extractItems(body, source, m, sub)
			}

		case "struct_item":
			name := fieldText(c, "name", source)
			if name == "" {
				continue
			}
			id := m.add(owner, ElementKindClass, name)
			m.find(id).Abstract = Bool(false)
			body := c.ChildByFieldName("body")
			for _, field := range namedChildren(body) {
				if field.Kind() != "field_declaration" {
					continue
				}
				if fname := fieldText(field, "name", source); fname != "" {
					m.addAttribute(id, fname, fieldText(field, "type", source))
				}
			}

		case "trait_item":
			name := fieldText(c, "name", source)
			if name == "" {
				continue
			}
			id := m.add(owner, ElementKindInterface, name)
			m.find(id).Abstract = Bool(true)
			for _, item := range namedChildren(c.ChildByFieldName("body")) {
				if item.Kind() != "function_signature_item" && item.Kind() != "function_item" {
					continue
				}
				if fname := fieldText(item, "name", source); fname != "" {
					op := m.add(id, ElementKindOperation, fname)
					m.find(op).Static = Bool(false)
					m.find(op).Abstract = Bool(item.Kind() == "function_signature_item")
				}
			}

		case "enum_item":
			name := fieldText(c, "name", source)
			if name == "" {
				continue
			}
			id := m.add(owner, ElementKindEnumeration, name)
			for _, v := range namedChildren(c.ChildByFieldName("body")) {
				if v.Kind() != "enum_variant" {
					continue
				}
				if vname := fieldText(v, "name", source); vname != "" {
					m.add(id, ElementKindEnumerationLiteral, vname)
				}
			}

		case "type_item":
			if name := fieldText(c, "name", source); name != "" {
				m.add(owner, ElementKindDataType, name)
			}

		case "function_item":
			if name := fieldText(c, "name", source); name != "" {
				op := m.add(owner, ElementKindOperation, name)
				m.find(op).Static = Bool(true)
				m.find(op).Abstract = Bool(false)
			}

		case "attribute_item":
			// #[derive(...)] and friends annotate the next item.
			m.add(owner, ElementKindAnnotation, strings.TrimSpace(c.Utf8Text(source)))

		case "line_comment", "block_comment":
			m.add(owner, ElementKindComment, strings.TrimSpace(strings.TrimPrefix(c.Utf8Text(source), "//")))
		}
	}
}
