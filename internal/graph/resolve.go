package graph

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ImportResolver maps raw import specifiers (extracted by tree-sitter) onto
// repo-relative file paths that match Resource.Path values. It is built once
// per indexing run from the set of known file paths.
type ImportResolver struct {
	fileSet   map[string]bool
	dirIndex  map[string][]string
	goModPath string
}

// NewImportResolver builds a resolver from the repository root and the
// repo-relative paths of every indexed file. go.mod is read from repoRoot
// when present to resolve module-internal Go imports.
func NewImportResolver(repoRoot string, knownFiles []string) *ImportResolver {
	r := &ImportResolver{
		fileSet:  make(map[string]bool, len(knownFiles)),
		dirIndex: make(map[string][]string),
	}
	for _, f := range knownFiles {
		f = filepath.ToSlash(f)
		r.fileSet[f] = true
		dir := path.Dir(f)
		r.dirIndex[dir] = append(r.dirIndex[dir], f)
	}
	for dir := range r.dirIndex {
		sort.Strings(r.dirIndex[dir])
	}
	r.goModPath = readGoModulePath(filepath.Join(repoRoot, "go.mod"))
	return r
}

// Resolve returns the file an import specifier refers to, and false for
// specifiers that point outside the repository (stdlib, external packages).
func (r *ImportResolver) Resolve(specifier, sourceFile string, lang Language) (string, bool) {
	sourceFile = filepath.ToSlash(sourceFile)
	switch lang {
	case LangGo:
		return r.resolveGo(specifier)
	case LangTypeScript:
		return r.resolveTS(specifier, sourceFile)
	case LangPython:
		return r.resolvePython(specifier, sourceFile)
	case LangRust:
		return r.resolveRust(specifier, sourceFile)
	}
	return "", false
}

// --- Go ---

func (r *ImportResolver) resolveGo(importPath string) (string, bool) {
	if r.goModPath == "" {
		return "", false
	}
	relDir := "."
	if importPath != r.goModPath {
		rest, ok := strings.CutPrefix(importPath, r.goModPath+"/")
		if !ok {
			return "", false // stdlib or external module
		}
		relDir = rest
	}
	// dirIndex is sorted, so the first non-test file is deterministic.
	for _, f := range r.dirIndex[relDir] {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// --- TypeScript ---

var tsExtensions = []string{".ts", ".tsx", ".d.ts", "/index.ts", "/index.tsx"}

func (r *ImportResolver) resolveTS(spec, sourceFile string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return "", false // package import
	}
	base := path.Clean(path.Join(path.Dir(sourceFile), spec))
	return r.probe(base, tsExtensions)
}

// --- Python ---

func (r *ImportResolver) resolvePython(spec, sourceFile string) (string, bool) {
	dots := len(spec) - len(strings.TrimLeft(spec, "."))
	modulePart := strings.ReplaceAll(spec[dots:], ".", "/")

	if dots == 0 {
		// Absolute import: only resolvable when it names a repo module.
		return r.probe(modulePart, []string{".py", "/__init__.py"})
	}

	// One dot = same package, two dots = parent, etc.
	baseDir := path.Dir(sourceFile)
	for i := 1; i < dots; i++ {
		baseDir = path.Dir(baseDir)
	}
	if modulePart == "" {
		return r.probe(path.Join(baseDir, "__init__"), []string{".py"})
	}
	return r.probe(path.Join(baseDir, modulePart), []string{".py", "/__init__.py"})
}

// --- Rust ---

var rsExtensions = []string{".rs", "/mod.rs"}

func (r *ImportResolver) resolveRust(spec, sourceFile string) (string, bool) {
	// "crate::model::{Repository, User}" -> "crate::model"
	if i := strings.Index(spec, "::{"); i != -1 {
		spec = spec[:i]
	}
	head, rest, _ := strings.Cut(spec, "::")
	var bases []string
	switch head {
	case "crate":
		root := crateRoot(sourceFile)
		modPath := strings.ReplaceAll(rest, "::", "/")
		bases = append(bases, path.Join(root, modPath))
		// A trailing item name ("crate::model::User") lives in its module file.
		if i := strings.LastIndex(modPath, "/"); i > 0 {
			bases = append(bases, path.Join(root, modPath[:i]))
		}
	case "self":
		bases = append(bases, path.Join(path.Dir(sourceFile), strings.ReplaceAll(rest, "::", "/")))
	case "super":
		bases = append(bases, path.Join(path.Dir(path.Dir(sourceFile)), strings.ReplaceAll(rest, "::", "/")))
	default:
		return "", false // external crate
	}
	for _, base := range bases {
		if f, ok := r.probe(base, rsExtensions); ok {
			return f, true
		}
	}
	return "", false
}

// crateRoot walks up from a file path to the nearest "src" directory.
func crateRoot(filePath string) string {
	for dir := path.Dir(filePath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if path.Base(dir) == "src" {
			return dir
		}
	}
	return "src"
}

// --- Shared helpers ---

// probe checks base and base+ext against the known file set. No filesystem I/O.
func (r *ImportResolver) probe(base string, extensions []string) (string, bool) {
	if r.fileSet[base] {
		return base, true
	}
	for _, ext := range extensions {
		if candidate := base + ext; r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func readGoModulePath(modFile string) string {
	f, err := os.Open(modFile)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return ""
}
