package graph

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extractor populates a fileModel from a parsed tree-sitter AST.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, m *fileModel)
}

// TreeSitterParser implements the Parser interface using tree-sitter grammars.
// A new tree-sitter parser is created per Parse call, so concurrent Parse
// calls on one TreeSitterParser are safe.
type TreeSitterParser struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

// Compile-time assertion: *TreeSitterParser satisfies Parser.
var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with Go, TypeScript, Python,
// and Rust grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	extractors := map[Language]extractor{
		LangGo:         &goExtractor{},
		LangTypeScript: &tsExtractor{},
		LangPython:     &pyExtractor{},
		LangRust:       &rsExtractor{},
	}

	return &TreeSitterParser{
		languages:  langs,
		extractors: extractors,
	}
}

// Parse extracts the model of a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, path string, source []byte, lang Language) (*ParseResult, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	ext, ok := p.extractors[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor for language: %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	m := newFileModel(path)
	ext.Extract(tree.RootNode(), source, m)
	return m.result(lang), nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// namedChildren returns the named children of node.
func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*tree_sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// fieldText returns the source text of node's child for field, or "".
func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	c := node.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return c.Utf8Text(source)
}

// hasChildKind reports whether node has a direct child (named or anonymous)
// of the given kind, e.g. a "static" keyword.
func hasChildKind(node *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}
