package mcptools

import (
	"github.com/dusk-indust/modelexplorer/internal/export"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// NodeInfo describes one explorer node as the tree widget renders it.
type NodeInfo struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"`
	Icons       []string `json:"icons,omitempty"`
	HasChildren bool     `json:"hasChildren"`
	CanDelete   bool     `json:"canDelete"`
	CanRename   bool     `json:"canRename"`
}

// RootsInput is the input for the explorer_roots MCP tool.
type RootsInput struct {
	Filters []string `json:"filters,omitempty" jsonschema:"active filters: hide-read-only, hide-non-semantic (default: configured filters)"`
}

// RootsOutput is the result of the explorer_roots MCP tool.
type RootsOutput struct {
	Roots []NodeInfo `json:"roots"`
}

// ChildrenInput is the input for the explorer_children MCP tool.
type ChildrenInput struct {
	ID        string   `json:"id" jsonschema:"token of the expanded node"`
	Ancestors []string `json:"ancestors,omitempty" jsonschema:"tokens from the root down to the node's parent"`
}

// ChildrenOutput is the result of the explorer_children MCP tool.
type ChildrenOutput struct {
	Found    bool       `json:"found"`
	Children []NodeInfo `json:"children"`
}

// NodeInput is the input for the tools that take a single node token.
type NodeInput struct {
	ID string `json:"id" jsonschema:"node token as returned by another explorer tool"`
}

// HasChildrenOutput is the result of the explorer_has_children MCP tool.
type HasChildrenOutput struct {
	Found       bool `json:"found"`
	HasChildren bool `json:"hasChildren"`
}

// ResolveOutput is the result of the explorer_resolve MCP tool.
type ResolveOutput struct {
	Node *NodeInfo `json:"node,omitempty"`
}

// ParentOutput is the result of the explorer_parent MCP tool.
type ParentOutput struct {
	Found  bool      `json:"found"`
	Parent *NodeInfo `json:"parent,omitempty"`
}

// TreeInput is the input for the explorer_tree MCP tool.
type TreeInput struct {
	Filters  []string `json:"filters,omitempty" jsonschema:"active filters (default: configured filters)"`
	Expand   []string `json:"expand,omitempty" jsonschema:"tokens to expand (default: expand everything)"`
	MaxDepth int      `json:"maxDepth,omitempty" jsonschema:"maximum expansion depth (default: 8)"`
	Format   string   `json:"format,omitempty" jsonschema:"nodes (default) or mermaid"`
}

// TreeOutput is the result of the explorer_tree MCP tool.
type TreeOutput struct {
	NodeCount int               `json:"nodeCount"`
	Nodes     []export.FlatNode `json:"nodes,omitempty"`
	Mermaid   string            `json:"mermaid,omitempty"`
}

// IndexSourcesInput is the input for the index_sources MCP tool.
type IndexSourcesInput struct {
	RepoPath    string   `json:"repoPath" jsonschema:"the absolute path to the source tree to import"`
	Languages   []string `json:"languages,omitempty" jsonschema:"languages to index (default: tier-1). Values: go, typescript, python, rust"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"directories to exclude from indexing (e.g. vendor, node_modules)"`
}

// LoadModelInput is the input for the load_model MCP tool.
type LoadModelInput struct {
	Path    string `json:"path,omitempty" jsonschema:"path to a YAML model document"`
	Content string `json:"content,omitempty" jsonschema:"inline YAML model document, used when path is empty"`
}

// StatsOutput is the result of the tools that populate the graph.
type StatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}
