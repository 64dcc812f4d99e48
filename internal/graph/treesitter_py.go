package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor maps a Python module onto the model. Class-level assignments
// become attributes; an annotation ("x: int") types the attribute, a bare
// assignment leaves it untyped.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, m *fileModel) {
	mod := m.add("", ElementKindPackage, moduleName(m.path))
	e.extractBlock(root, source, m, mod, true)
}

// extractBlock handles the statements of a module (topLevel) or class body.
func (e *pyExtractor) extractBlock(block *tree_sitter.Node, source []byte, m *fileModel, owner string, topLevel bool) {
	for _, c := range namedChildren(block) {
		switch c.Kind() {
		case "import_statement":
			if !topLevel {
				continue
			}
			for _, n := range namedChildren(c) {
				switch n.Kind() {
				case "dotted_name":
					m.addImport(owner, n.Utf8Text(source))
				case "aliased_import":
					if name := fieldText(n, "name", source); name != "" {
						m.addImport(owner, name)
					}
				}
			}

		case "import_from_statement":
			if !topLevel {
				continue
			}
			if mod := fieldText(c, "module_name", source); mod != "" {
				m.addImport(owner, mod)
			}

		case "class_definition":
			e.extractClass(c, nil, source, m, owner)

		case "function_definition":
			e.extractFunction(c, nil, source, m, owner, topLevel)

		case "decorated_definition":
			def := c.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "class_definition":
				e.extractClass(def, c, source, m, owner)
			case "function_definition":
				e.extractFunction(def, c, source, m, owner, topLevel)
			}

		case "expression_statement":
			if topLevel {
				continue
			}
			for _, a := range namedChildren(c) {
				if a.Kind() != "assignment" {
					continue
				}
				left := a.ChildByFieldName("left")
				if left == nil || left.Kind() != "identifier" {
					continue
				}
				m.addAttribute(owner, left.Utf8Text(source), fieldText(a, "type", source))
			}

		case "comment":
			if topLevel {
				m.add(owner, ElementKindComment, strings.TrimSpace(strings.TrimPrefix(c.Utf8Text(source), "#")))
			}
		}
	}
}

func (e *pyExtractor) extractClass(node, decorated *tree_sitter.Node, source []byte, m *fileModel, owner string) {
	name := fieldText(node, "name", source)
	if name == "" {
		return
	}
	id := m.add(owner, ElementKindClass, name)
	supers := fieldText(node, "superclasses", source)
	m.find(id).Abstract = Bool(strings.Contains(supers, "ABC") || strings.Contains(supers, "Protocol"))
	m.find(id).Tags = e.decorators(decorated, source)
	if body := node.ChildByFieldName("body"); body != nil {
		e.extractBlock(body, source, m, id, false)
	}
}

func (e *pyExtractor) extractFunction(node, decorated *tree_sitter.Node, source []byte, m *fileModel, owner string, topLevel bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return
	}
	tags := e.decorators(decorated, source)
	static := topLevel
	abstract := false
	for _, t := range tags {
		switch t {
		case "staticmethod", "classmethod":
			static = true
		case "abstractmethod":
			abstract = true
		}
	}
	op := m.add(owner, ElementKindOperation, name)
	m.find(op).Static = Bool(static)
	m.find(op).Abstract = Bool(abstract)
	m.find(op).Tags = tags
}

// decorators returns the decorator names of a decorated_definition.
func (e *pyExtractor) decorators(decorated *tree_sitter.Node, source []byte) []string {
	var tags []string
	for _, d := range namedChildren(decorated) {
		if d.Kind() != "decorator" {
			continue
		}
		name := strings.TrimPrefix(strings.TrimSpace(d.Utf8Text(source)), "@")
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		tags = append(tags, name)
	}
	return tags
}
