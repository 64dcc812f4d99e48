package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/modelexplorer/internal/explorer"
	"github.com/dusk-indust/modelexplorer/internal/export"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

const tracerName = "github.com/dusk-indust/modelexplorer/internal/mcptools"

// ServiceConfig holds the explorer settings shared by every tool call.
type ServiceConfig struct {
	ReadOnlyPatterns  []string
	DefaultFilters    []explorer.Filter
	AttributeGrouping bool
	Logger            *slog.Logger
}

// ExplorerService holds the graph store, parser and explorer used by MCP
// tool handlers.
type ExplorerService struct {
	store    graph.Store
	parser   graph.Parser
	explorer *explorer.Explorer
	filters  []explorer.Filter
	logger   *slog.Logger
	tracer   trace.Tracer

	// mu is held for writing while a tool populates the store and for
	// reading by every explorer tool, so no request sees a partial load.
	mu sync.RWMutex
}

// NewExplorerService creates an ExplorerService over store. parser may be nil,
// in which case index_sources reports an error.
func NewExplorerService(store graph.Store, parser graph.Parser, cfg ServiceConfig) *ExplorerService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ex := explorer.NewFromStore(store, cfg.ReadOnlyPatterns,
		explorer.WithLogger(logger),
		explorer.WithAttributeGrouping(cfg.AttributeGrouping),
	)
	return &ExplorerService{
		store:    store,
		parser:   parser,
		explorer: ex,
		filters:  cfg.DefaultFilters,
		logger:   logger.With("component", "mcptools"),
		tracer:   otel.Tracer(tracerName),
	}
}

// Explorer returns the explorer the tools answer from.
func (s *ExplorerService) Explorer() *explorer.Explorer { return s.explorer }

func (s *ExplorerService) startSpan(ctx context.Context, tool string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("mcp.tool", tool))
	return s.tracer.Start(ctx, "mcp."+tool, trace.WithAttributes(attrs...))
}

func (s *ExplorerService) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Roots lists the top-level nodes under the requested filters.
func (s *ExplorerService) Roots(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RootsInput,
) (_ *mcp.CallToolResult, _ RootsOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_roots", attribute.StringSlice("explorer.filters", input.Filters))
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	filters, err := s.parseFilters(input.Filters)
	if err != nil {
		return nil, RootsOutput{}, err
	}
	roots, err := s.explorer.Roots(ctx, filters...)
	if err != nil {
		return nil, RootsOutput{}, fmt.Errorf("roots: %w", err)
	}
	infos, err := s.describeAll(ctx, roots)
	if err != nil {
		return nil, RootsOutput{}, err
	}
	span.SetAttributes(attribute.Int("explorer.count", len(infos)))
	return nil, RootsOutput{Roots: infos}, nil
}

// Children lists the children of an expanded node.
func (s *ExplorerService) Children(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChildrenInput,
) (_ *mcp.CallToolResult, _ ChildrenOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_children", attribute.String("explorer.token", input.ID))
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.resolve(ctx, input.ID)
	if err != nil || n == nil {
		return nil, ChildrenOutput{Children: []NodeInfo{}}, err
	}
	children, err := s.explorer.Children(ctx, n, explorer.NewExpanded(s.explorer.ID(n)), input.Ancestors)
	if err != nil {
		return nil, ChildrenOutput{}, fmt.Errorf("children: %w", err)
	}
	infos, err := s.describeAll(ctx, children)
	if err != nil {
		return nil, ChildrenOutput{}, err
	}
	span.SetAttributes(attribute.Int("explorer.count", len(infos)))
	return nil, ChildrenOutput{Found: true, Children: infos}, nil
}

// HasChildren reports whether a node would show an expansion affordance.
func (s *ExplorerService) HasChildren(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NodeInput,
) (_ *mcp.CallToolResult, _ HasChildrenOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_has_children", attribute.String("explorer.token", input.ID))
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.resolve(ctx, input.ID)
	if err != nil || n == nil {
		return nil, HasChildrenOutput{}, err
	}
	has, err := s.explorer.HasChildren(ctx, n)
	if err != nil {
		return nil, HasChildrenOutput{}, fmt.Errorf("has children: %w", err)
	}
	return nil, HasChildrenOutput{Found: true, HasChildren: has}, nil
}

// Resolve maps a token back to its node. Stale tokens yield no node.
func (s *ExplorerService) Resolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NodeInput,
) (_ *mcp.CallToolResult, _ ResolveOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_resolve", attribute.String("explorer.token", input.ID))
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.resolve(ctx, input.ID)
	if err != nil || n == nil {
		return nil, ResolveOutput{}, err
	}
	info, err := s.describe(ctx, n)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	return nil, ResolveOutput{Node: &info}, nil
}

// Parent returns the logical parent of a node.
func (s *ExplorerService) Parent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NodeInput,
) (_ *mcp.CallToolResult, _ ParentOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_parent", attribute.String("explorer.token", input.ID))
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.resolve(ctx, input.ID)
	if err != nil || n == nil {
		return nil, ParentOutput{}, err
	}
	p, err := s.explorer.Parent(ctx, n)
	if err != nil {
		return nil, ParentOutput{}, fmt.Errorf("parent: %w", err)
	}
	if p == nil {
		return nil, ParentOutput{Found: true}, nil
	}
	info, err := s.describe(ctx, p)
	if err != nil {
		return nil, ParentOutput{}, err
	}
	return nil, ParentOutput{Found: true, Parent: &info}, nil
}

// Tree materializes the visible tree as flat rows or a Mermaid diagram.
func (s *ExplorerService) Tree(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TreeInput,
) (_ *mcp.CallToolResult, _ TreeOutput, err error) {
	ctx, span := s.startSpan(ctx, "explorer_tree",
		attribute.StringSlice("explorer.filters", input.Filters),
		attribute.String("explorer.format", input.Format),
	)
	defer func() { s.endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	filters, err := s.parseFilters(input.Filters)
	if err != nil {
		return nil, TreeOutput{}, err
	}
	opts := export.TreeOptions{Filters: filters, MaxDepth: input.MaxDepth}
	if len(input.Expand) > 0 {
		opts.Expanded = explorer.NewExpanded(input.Expand...)
	}
	roots, err := export.CollectTree(ctx, s.explorer, opts)
	if err != nil {
		return nil, TreeOutput{}, fmt.Errorf("collect tree: %w", err)
	}

	out := TreeOutput{NodeCount: export.Count(roots)}
	switch strings.ToLower(input.Format) {
	case "", "nodes":
		out.Nodes = export.Flatten(roots)
	case "mermaid":
		out.Mermaid = export.GenerateMermaid(roots)
	default:
		return nil, TreeOutput{}, fmt.Errorf("unknown format %q (want nodes or mermaid)", input.Format)
	}
	span.SetAttributes(attribute.Int("explorer.count", out.NodeCount))
	return nil, out, nil
}

// IndexSources imports a source tree into the graph, one resource per file.
func (s *ExplorerService) IndexSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexSourcesInput,
) (_ *mcp.CallToolResult, _ StatsOutput, err error) {
	ctx, span := s.startSpan(ctx, "index_sources", attribute.String("graph.repo_path", input.RepoPath))
	defer func() { s.endSpan(span, err) }()

	if s.parser == nil {
		return nil, StatsOutput{}, fmt.Errorf("source indexing is not available")
	}
	langs := make([]graph.Language, 0, len(input.Languages))
	for _, l := range input.Languages {
		langs = append(langs, graph.Language(strings.ToLower(l)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats, err := graph.IndexRepository(ctx, s.store, s.parser, graph.IndexOptions{
		RepoPath:    input.RepoPath,
		Languages:   langs,
		ExcludeDirs: input.ExcludeDirs,
	})
	if err != nil {
		return nil, StatsOutput{}, err
	}
	s.logger.Info("indexed sources", "repo", input.RepoPath, "resources", stats.ResourceCount, "elements", stats.ElementCount)
	return nil, StatsOutput{Stats: *stats}, nil
}

// LoadModel adds a YAML model document to the graph.
func (s *ExplorerService) LoadModel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadModelInput,
) (_ *mcp.CallToolResult, _ StatsOutput, err error) {
	ctx, span := s.startSpan(ctx, "load_model", attribute.String("graph.model_path", input.Path))
	defer func() { s.endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var stats *graph.GraphStats
	switch {
	case input.Path != "":
		if _, statErr := os.Stat(input.Path); statErr != nil {
			return nil, StatsOutput{}, fmt.Errorf("cannot access path: %w", statErr)
		}
		stats, err = graph.LoadModelFile(ctx, s.store, input.Path)
	case input.Content != "":
		stats, err = graph.LoadModel(ctx, s.store, strings.NewReader(input.Content))
	default:
		return nil, StatsOutput{}, fmt.Errorf("path or content is required")
	}
	if err != nil {
		return nil, StatsOutput{}, err
	}
	s.logger.Info("loaded model", "path", input.Path, "resources", stats.ResourceCount, "elements", stats.ElementCount)
	return nil, StatsOutput{Stats: *stats}, nil
}

// resolve decodes a token; an empty token is a caller error.
func (s *ExplorerService) resolve(ctx context.Context, token string) (explorer.Node, error) {
	if token == "" {
		return nil, fmt.Errorf("id is required")
	}
	n, err := s.explorer.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", token, err)
	}
	return n, nil
}

func (s *ExplorerService) parseFilters(names []string) ([]explorer.Filter, error) {
	if names == nil {
		return s.filters, nil
	}
	filters := make([]explorer.Filter, 0, len(names))
	for _, name := range names {
		f, err := explorer.ParseFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (s *ExplorerService) describe(ctx context.Context, n explorer.Node) (NodeInfo, error) {
	has, err := s.explorer.HasChildren(ctx, n)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("has children %s: %w", s.explorer.ID(n), err)
	}
	return NodeInfo{
		ID:          s.explorer.ID(n),
		Label:       s.explorer.Label(n),
		Kind:        s.explorer.Kind(n),
		Icons:       s.explorer.Icons(n),
		HasChildren: has,
		CanDelete:   s.explorer.CanDelete(ctx, n),
		CanRename:   s.explorer.CanRename(ctx, n),
	}, nil
}

func (s *ExplorerService) describeAll(ctx context.Context, nodes []explorer.Node) ([]NodeInfo, error) {
	out := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		info, err := s.describe(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}
