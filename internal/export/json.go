package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/modelexplorer/internal/explorer"
)

// TreeExport is the top-level JSON export structure.
type TreeExport struct {
	Name       string      `json:"name,omitempty"`
	ExportedAt string      `json:"exportedAt"`
	Filters    []string    `json:"filters,omitempty"`
	NodeCount  int         `json:"nodeCount"`
	Roots      []*TreeNode `json:"roots"`
}

// ExportTree collects the visible tree and wraps it for serialization.
func ExportTree(ctx context.Context, ex *explorer.Explorer, name string, opts TreeOptions) (*TreeExport, error) {
	roots, err := CollectTree(ctx, ex, opts)
	if err != nil {
		return nil, err
	}
	export := &TreeExport{
		Name:       name,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		NodeCount:  Count(roots),
		Roots:      roots,
	}
	if export.Roots == nil {
		export.Roots = []*TreeNode{}
	}
	for _, f := range opts.Filters {
		export.Filters = append(export.Filters, string(f))
	}
	return export, nil
}

// WriteJSON writes export as indented JSON followed by a newline.
func WriteJSON(w io.Writer, export *TreeExport) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
