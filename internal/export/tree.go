package export

import (
	"context"
	"fmt"

	"github.com/dusk-indust/modelexplorer/internal/explorer"
)

// DefaultMaxDepth bounds expansion when following import chains that loop.
const DefaultMaxDepth = 8

// TreeNode is one materialized explorer node.
type TreeNode struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Kind        string      `json:"kind"`
	Icons       []string    `json:"icons,omitempty"`
	HasChildren bool        `json:"hasChildren"`
	CanDelete   bool        `json:"canDelete"`
	CanRename   bool        `json:"canRename"`
	Children    []*TreeNode `json:"children,omitempty"`
}

// TreeOptions controls which parts of the tree CollectTree materializes.
type TreeOptions struct {
	Filters []explorer.Filter
	// Expanded lists the tokens whose children are collected. When nil,
	// every node is expanded down to MaxDepth.
	Expanded explorer.Expanded
	MaxDepth int
}

// CollectTree walks the explorer from its roots and returns the visible tree.
func CollectTree(ctx context.Context, ex *explorer.Explorer, opts TreeOptions) ([]*TreeNode, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	roots, err := ex.Roots(ctx, opts.Filters...)
	if err != nil {
		return nil, fmt.Errorf("roots: %w", err)
	}
	c := collector{ex: ex, opts: opts}
	out := make([]*TreeNode, 0, len(roots))
	for _, r := range roots {
		tn, err := c.collect(ctx, r, nil, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, tn)
	}
	return out, nil
}

// CollectSubtree materializes n and its descendants. ancestors are the
// tokens from the root down to n's parent.
func CollectSubtree(ctx context.Context, ex *explorer.Explorer, n explorer.Node, ancestors []string, opts TreeOptions) (*TreeNode, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	c := collector{ex: ex, opts: opts}
	return c.collect(ctx, n, ancestors, 0)
}

type collector struct {
	ex   *explorer.Explorer
	opts TreeOptions
}

func (c *collector) collect(ctx context.Context, n explorer.Node, ancestors []string, depth int) (*TreeNode, error) {
	id := c.ex.ID(n)
	has, err := c.ex.HasChildren(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("has children %s: %w", id, err)
	}
	tn := &TreeNode{
		ID:          id,
		Label:       c.ex.Label(n),
		Kind:        c.ex.Kind(n),
		Icons:       c.ex.Icons(n),
		HasChildren: has,
		CanDelete:   c.ex.CanDelete(ctx, n),
		CanRename:   c.ex.CanRename(ctx, n),
	}
	if !has || depth >= c.opts.MaxDepth {
		return tn, nil
	}

	expanded := c.opts.Expanded
	if expanded == nil {
		expanded = explorer.NewExpanded(id)
	}
	children, err := c.ex.Children(ctx, n, expanded, ancestors)
	if err != nil {
		return nil, fmt.Errorf("children %s: %w", id, err)
	}
	trail := append(append([]string(nil), ancestors...), id)
	for _, child := range children {
		ctn, err := c.collect(ctx, child, trail, depth+1)
		if err != nil {
			return nil, err
		}
		tn.Children = append(tn.Children, ctn)
	}
	return tn, nil
}

// Count returns the number of nodes in the forest.
func Count(nodes []*TreeNode) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Children)
	}
	return total
}

// FlatNode is a TreeNode without its children, positioned by parent and depth.
type FlatNode struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parentId,omitempty"`
	Depth       int      `json:"depth"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"`
	Icons       []string `json:"icons,omitempty"`
	HasChildren bool     `json:"hasChildren"`
	CanDelete   bool     `json:"canDelete"`
	CanRename   bool     `json:"canRename"`
}

// Flatten lists the forest in depth-first display order.
func Flatten(nodes []*TreeNode) []FlatNode {
	var out []FlatNode
	var walk func(n *TreeNode, parent string, depth int)
	walk = func(n *TreeNode, parent string, depth int) {
		out = append(out, FlatNode{
			ID:          n.ID,
			ParentID:    parent,
			Depth:       depth,
			Label:       n.Label,
			Kind:        n.Kind,
			Icons:       n.Icons,
			HasChildren: n.HasChildren,
			CanDelete:   n.CanDelete,
			CanRename:   n.CanRename,
		})
		for _, c := range n.Children {
			walk(c, n.ID, depth+1)
		}
	}
	for _, n := range nodes {
		walk(n, "", 0)
	}
	return out
}
