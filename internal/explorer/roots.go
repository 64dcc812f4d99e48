package explorer

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Filter hides a class of roots.
type Filter string

const (
	// FilterHideReadOnly hides resources the read-only policy protects.
	FilterHideReadOnly Filter = "hide-read-only"
	// FilterHideNonSemantic hides resources without any semantic element.
	FilterHideNonSemantic Filter = "hide-non-semantic"
)

// KnownFilters lists every Filter the explorer understands.
var KnownFilters = []Filter{FilterHideReadOnly, FilterHideNonSemantic}

// ParseFilter validates a filter name.
func ParseFilter(s string) (Filter, error) {
	for _, f := range KnownFilters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Roots returns the resources of the graph, minus those hidden by filters,
// ordered case-insensitively by label with empty labels last.
func (e *Explorer) Roots(ctx context.Context, filters ...Filter) ([]Node, error) {
	active := make(map[Filter]bool, len(filters))
	for _, f := range filters {
		active[f] = true
	}

	resources, err := e.objects.Resources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	roots := make([]ResourceRoot, 0, len(resources))
	for _, res := range resources {
		if active[FilterHideReadOnly] && e.policy.IsReadOnly(ctx, res) {
			continue
		}
		if active[FilterHideNonSemantic] {
			contents, err := e.objects.ResourceContents(ctx, res.Path)
			if err != nil {
				return nil, fmt.Errorf("contents of resource %s: %w", res.Path, err)
			}
			if !anySemantic(contents) {
				continue
			}
		}
		roots = append(roots, newResourceRoot(res))
	}

	sortByLabel(roots, func(r ResourceRoot) string { return r.Label })
	nodes := make([]Node, len(roots))
	for i, r := range roots {
		nodes[i] = r
	}
	return nodes, nil
}

// sortByLabel sorts s case-insensitively by label, keeping empty labels at
// the end and the input order among equal labels.
func sortByLabel[T any](s []T, label func(T) string) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := label(s[i]), label(s[j])
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return strings.ToLower(a) < strings.ToLower(b)
	})
}
