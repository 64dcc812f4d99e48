package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/modelexplorer/internal/explorer"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a collected tree.
// Each root becomes a subgraph; containment is drawn with solid arrows and
// synthetic children (import projections, attribute groups) with dotted ones.
func GenerateMermaid(roots []*TreeNode) string {
	// Build token → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(token string) string {
		if id, ok := nodeIDs[token]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[token] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var edges []string
	var emit func(n *TreeNode, indent string)
	emit = func(n *TreeNode, indent string) {
		fmt.Fprintf(&sb, "%s%s[\"%s\"]\n", indent, getID(n.ID), mermaidLabel(n.Label))
		for _, c := range n.Children {
			emit(c, indent)
			arrow := "-->"
			if isSynthetic(c.Kind) {
				arrow = "-.->"
			}
			edges = append(edges, fmt.Sprintf("  %s %s %s\n", getID(n.ID), arrow, getID(c.ID)))
		}
	}

	for _, r := range roots {
		if len(r.Children) == 0 {
			fmt.Fprintf(&sb, "  %s[\"%s\"]\n", getID(r.ID), mermaidLabel(r.Label))
			continue
		}
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID(r.ID+"_root"), mermaidLabel(r.Label))
		for _, c := range r.Children {
			emit(c, "    ")
		}
		sb.WriteString("  end\n")
		for _, c := range r.Children {
			edges = append(edges, fmt.Sprintf("  %s --> %s\n", getID(r.ID+"_root"), getID(c.ID)))
		}
	}

	for _, e := range edges {
		sb.WriteString(e)
	}
	return sb.String()
}

func isSynthetic(kind string) bool {
	return kind == explorer.KindImported || kind == explorer.KindAttributeGroup
}

// maxLabelRunes caps the visible length of a Mermaid label.
const maxLabelRunes = 40

// mermaidLabel shortens s to maxLabelRunes and makes it safe inside a quoted
// Mermaid label. Escaping happens after shortening so entities stay whole.
func mermaidLabel(s string) string {
	if s == "" {
		return " "
	}
	if r := []rune(s); len(r) > maxLabelRunes {
		s = string(r[:maxLabelRunes])
	}
	return strings.NewReplacer(`"`, "#quot;", "\n", " ").Replace(s)
}
