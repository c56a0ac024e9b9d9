package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a snapshot's navigation.
// Each distinct step becomes a node grouped by peer tag, and history order
// becomes edges from older to newer steps. While cycling, ring members are
// styled and the ring is drawn as a dotted loop.
// The current position is highlighted.
func GenerateMermaid(snap *domain.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make(map[domain.Step]string)
	var tags []string
	byTag := make(map[string][]domain.Step)
	idOf := func(s domain.Step) string {
		if id, ok := ids[s]; ok {
			return id
		}
		id := fmt.Sprintf("s%d", len(ids))
		ids[s] = id
		if _, seen := byTag[s.Tag]; !seen {
			tags = append(tags, s.Tag)
		}
		byTag[s.Tag] = append(byTag[s.Tag], s)
		return id
	}

	var edges []string
	link := func(from, to domain.Step, arrow string) {
		a, b := idOf(from), idOf(to)
		if a == b {
			return
		}
		edges = append(edges, fmt.Sprintf("    %s %s %s\n", a, arrow, b))
	}

	for i, step := range snap.History {
		idOf(step)
		if i > 0 {
			link(snap.History[i-1], step, "-->")
		}
	}
	for i, step := range snap.Ring {
		idOf(step)
		if i > 0 {
			link(snap.Ring[i-1], step, "-.->")
		}
	}
	if len(snap.Ring) > 1 {
		link(snap.Ring[len(snap.Ring)-1], snap.Ring[0], "-.->")
	}

	for _, tag := range tags {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", "t_"+ids[byTag[tag][0]], escapeLabel(tag))
		for _, s := range byTag[tag] {
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", ids[s], escapeLabel(s.Ref))
		}
		sb.WriteString("    end\n")
	}
	for _, e := range edges {
		sb.WriteString(e)
	}

	current, ok := currentStep(snap)
	if !ok {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef ring fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	styled := make(map[string]bool)
	for _, s := range snap.Ring {
		if id := ids[s]; !styled[id] {
			styled[id] = true
			fmt.Fprintf(&sb, "    class %s ring;\n", id)
		}
	}
	if ok {
		fmt.Fprintf(&sb, "    class %s current;\n", ids[current])
	}
	return sb.String()
}

func currentStep(snap *domain.Snapshot) (domain.Step, bool) {
	if snap.Mode == domain.ModeCycling && len(snap.Ring) > 0 {
		return snap.Ring[len(snap.Ring)-1], true
	}
	if len(snap.History) > 0 {
		return snap.History[len(snap.History)-1], true
	}
	return domain.Step{}, false
}

func escapeLabel(s string) string {
	if s == "" {
		return " "
	}
	return strings.ReplaceAll(s, "\"", "#quot;")
}
