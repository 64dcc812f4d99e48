package graph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// BuiltinResource holds the primitive types that attribute types fall back
// to when they do not name a classifier of the indexed repository.
const BuiltinResource = "builtin"

// extToLanguage maps file extensions to Language.
var extToLanguage = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".py":  LangPython,
	".rs":  LangRust,
}

// IndexOptions configures IndexRepository.
type IndexOptions struct {
	RepoPath    string
	Languages   []Language // default: Tier1Languages
	ExcludeDirs []string   // directory names skipped during the walk
	Concurrency int        // parallel parses; default GOMAXPROCS
}

// IndexRepository walks a source tree, parses every supported file into a
// resource and populates store with the resulting model. Import statements
// are pointed at the top-level element of the file they import; attribute
// types are resolved against classifiers declared in the same directory and
// otherwise against read-only primitives in BuiltinResource.
func IndexRepository(ctx context.Context, store Store, parser Parser, opts IndexOptions) (*GraphStats, error) {
	if opts.RepoPath == "" {
		return nil, fmt.Errorf("repoPath is required")
	}
	info, err := os.Stat(opts.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repoPath is not a directory: %s", opts.RepoPath)
	}

	files, err := collectSourceFiles(opts)
	if err != nil {
		return nil, err
	}

	results := make([]*ParseResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, f := range files {
		g.Go(func() error {
			source, err := os.ReadFile(filepath.Join(opts.RepoPath, filepath.FromSlash(f.path)))
			if err != nil {
				return nil // skip unreadable files
			}
			res, err := parser.Parse(gctx, f.path, source, f.lang)
			if err != nil {
				return nil // skip unparseable files
			}
			results[i] = res
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var parsed []*ParseResult
	for _, r := range results {
		if r != nil {
			parsed = append(parsed, r)
		}
	}
	linkModels(opts.RepoPath, parsed)

	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	for _, r := range parsed {
		if err := addParseResult(ctx, store, r); err != nil {
			return nil, err
		}
	}
	if builtins := builtinModel(parsed); builtins != nil {
		if err := addParseResult(ctx, store, builtins); err != nil {
			return nil, err
		}
	}
	return store.Stats(ctx)
}

type sourceFile struct {
	path string // repo-relative, slash separated
	lang Language
}

func collectSourceFiles(opts IndexOptions) ([]sourceFile, error) {
	allowed := make(map[Language]bool)
	langs := opts.Languages
	if len(langs) == 0 {
		langs = Tier1Languages
	}
	for _, l := range langs {
		allowed[l] = true
	}
	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		exclude[d] = true
	}

	var files []sourceFile
	err := filepath.WalkDir(opts.RepoPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if d.IsDir() {
			if name := d.Name(); p != opts.RepoPath && (strings.HasPrefix(name, ".") || exclude[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		lang, ok := extToLanguage[filepath.Ext(p)]
		if !ok || !allowed[lang] {
			return nil
		}
		rel, err := filepath.Rel(opts.RepoPath, p)
		if err != nil {
			return nil
		}
		files = append(files, sourceFile{path: filepath.ToSlash(rel), lang: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// linkModels resolves ImportRefs and TypeRefs across all parsed files,
// filling Element.ImportTarget and Element.TypeID in place.
func linkModels(repoRoot string, parsed []*ParseResult) {
	paths := make([]string, 0, len(parsed))
	// file -> first top-level element id
	topLevel := make(map[string]string)
	// dir -> type name -> classifier id
	classifiers := make(map[string]map[string]string)
	for _, r := range parsed {
		paths = append(paths, r.Resource.Path)
		dir := path.Dir(r.Resource.Path)
		if classifiers[dir] == nil {
			classifiers[dir] = make(map[string]string)
		}
		for _, e := range r.Elements {
			if e.OwnerID == "" {
				if _, ok := topLevel[r.Resource.Path]; !ok {
					topLevel[r.Resource.Path] = e.ID
				}
				continue
			}
			switch e.Kind {
			case ElementKindClass, ElementKindInterface, ElementKindDataType, ElementKindEnumeration:
				if _, dup := classifiers[dir][e.Name]; !dup {
					classifiers[dir][e.Name] = e.ID
				}
			}
		}
	}

	resolver := NewImportResolver(repoRoot, paths)
	for _, r := range parsed {
		index := make(map[string]int, len(r.Elements))
		for i, e := range r.Elements {
			index[e.ID] = i
		}
		for _, imp := range r.Imports {
			target, ok := resolver.Resolve(imp.Specifier, r.Resource.Path, r.Language)
			if !ok || target == r.Resource.Path {
				continue
			}
			if id, ok := topLevel[target]; ok {
				r.Elements[index[imp.ElementID]].ImportTarget = id
			}
		}
		local := classifiers[path.Dir(r.Resource.Path)]
		for _, ref := range r.TypeRefs {
			id, ok := local[ref.TypeName]
			if !ok {
				id = builtinID(ref.TypeName)
			}
			r.Elements[index[ref.ElementID]].TypeID = id
		}
	}
}

func builtinID(name string) string {
	return BuiltinResource + "#" + name
}

// builtinModel collects every builtin type referenced by parsed into one
// read-only resource, or returns nil when none is referenced.
func builtinModel(parsed []*ParseResult) *ParseResult {
	names := make(map[string]bool)
	for _, r := range parsed {
		for _, e := range r.Elements {
			if name, ok := strings.CutPrefix(e.TypeID, BuiltinResource+"#"); ok {
				names[name] = true
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := &ParseResult{Resource: Resource{Path: BuiltinResource, Label: "Builtin types", ReadOnly: true}}
	for i, n := range sorted {
		out.Elements = append(out.Elements, Element{
			ID:       builtinID(n),
			Kind:     ElementKindPrimitiveType,
			Name:     n,
			Resource: BuiltinResource,
			Position: i,
		})
	}
	return out
}

func addParseResult(ctx context.Context, store Store, r *ParseResult) error {
	if err := store.AddResource(ctx, r.Resource); err != nil {
		return fmt.Errorf("add resource %s: %w", r.Resource.Path, err)
	}
	for _, e := range r.Elements {
		if err := store.AddElement(ctx, e); err != nil {
			return fmt.Errorf("add element %s: %w", e.ID, err)
		}
	}
	return nil
}
