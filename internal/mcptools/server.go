package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/modelexplorer/internal/assets"
)

// version is set by the linker at build time
// (-X github.com/dusk-indust/modelexplorer/internal/mcptools.version=...).
var version = "dev"

// Version reports the build version.
func Version() string { return version }

// NewExplorerMCPServer creates an MCP server with the explorer and graph
// population tools registered.
func NewExplorerMCPServer(svc *ExplorerService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "modelexplorer",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_roots",
		Description: "List the top-level resources of the model, sorted by label. Optional filters hide read-only resources or resources without semantic content.",
	}, svc.Roots)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_children",
		Description: "List the children of a node: representations first, then owned semantic elements, then imported element projections or attribute type groups. Pass the ancestor tokens so projection ids stay unique per path.",
	}, svc.Children)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_has_children",
		Description: "Report whether a node would have children once expanded, without materializing them.",
	}, svc.HasChildren)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_resolve",
		Description: "Resolve a node token back to its node. Returns no node when the token is stale or malformed.",
	}, svc.Resolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_parent",
		Description: "Return the logical parent of a node: owner element, resource, representation target, import statement or classifier.",
	}, svc.Parent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explorer_tree",
		Description: "Materialize the visible tree, either as flat depth-first rows or as a Mermaid diagram. Expands every node unless expand tokens are given.",
	}, svc.Tree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_sources",
		Description: "Import a source tree into the model. Each file becomes a resource; types, attributes and import statements become elements.",
	}, svc.IndexSources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_model",
		Description: "Load a YAML model document (resources, nested elements and representations) from a path or inline content.",
	}, svc.LoadModel)

	return server
}

// NewHTTPHandler serves the MCP endpoint and, under /icons/, the icons that
// node descriptions reference.
func NewHTTPHandler(svc *ExplorerService) http.Handler {
	server := NewExplorerMCPServer(svc)

	mux := http.NewServeMux()
	mux.Handle("/icons/", assets.IconHandler())
	mux.Handle("/", mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	))
	return mux
}

// RunMCPServer starts an HTTP server exposing the explorer MCP tools.
func RunMCPServer(ctx context.Context, svc *ExplorerService, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: NewHTTPHandler(svc),
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ExplorerService) error {
	return NewExplorerMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
