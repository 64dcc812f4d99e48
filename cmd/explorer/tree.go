package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/modelexplorer/internal/explorer"
	"github.com/dusk-indust/modelexplorer/internal/export"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

type treeRequest struct {
	Format  string
	Filters []explorer.Filter
	Expand  []string
	Depth   int
}

func printTree(ctx context.Context, w io.Writer, ex *explorer.Explorer, req treeRequest) error {
	opts := export.TreeOptions{Filters: req.Filters, MaxDepth: req.Depth}
	if len(req.Expand) > 0 {
		opts.Expanded = explorer.NewExpanded(req.Expand...)
	}

	switch req.Format {
	case "json":
		exp, err := export.ExportTree(ctx, ex, "", opts)
		if err != nil {
			return err
		}
		return export.WriteJSON(w, exp)
	case "mermaid":
		roots, err := export.CollectTree(ctx, ex, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, export.GenerateMermaid(roots))
		return err
	case "text", "":
		roots, err := export.CollectTree(ctx, ex, opts)
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			fmt.Fprintln(w, "No resources found.")
			fmt.Fprintln(w, "Pass --model or --source, or list them in explorer.yml.")
			return nil
		}
		for _, row := range export.Flatten(roots) {
			printRow(w, row)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or mermaid)", req.Format)
	}
}

func printRow(w io.Writer, row export.FlatNode) {
	marker := "  "
	if row.HasChildren {
		marker = "+ "
	}
	var flags []string
	if !row.CanDelete {
		flags = append(flags, "locked")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = "  [" + strings.Join(flags, ",") + "]"
	}
	fmt.Fprintf(w, "%s%s%s  (%s)%s\n", strings.Repeat("  ", row.Depth), marker, row.Label, row.Kind, suffix)
}

func printStats(ctx context.Context, w io.Writer, store graph.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Fprintf(w, "Resources:       %d\n", stats.ResourceCount)
	fmt.Fprintf(w, "Elements:        %d\n", stats.ElementCount)
	fmt.Fprintf(w, "Representations: %d\n", stats.RepresentationCount)
	fmt.Fprintf(w, "Imports:         %d\n", stats.ImportCount)
	return nil
}
