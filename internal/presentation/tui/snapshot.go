package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// SnapshotMarkdown formats a snapshot as a markdown report, most recent
// step first.
func SnapshotMarkdown(snap *domain.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# tiptoe: %s\n\n", modeLabel(snap.Mode))
	if snap.StartedAt != nil {
		fmt.Fprintf(&b, "Cycling since %s, taken at %s.\n\n",
			snap.StartedAt.Format(time.TimeOnly), snap.TakenAt.Format(time.TimeOnly))
	}

	if len(snap.Ring) > 0 {
		b.WriteString("## Ring\n\n| # | tag | ref |\n|---|---|---|\n")
		for i := len(snap.Ring) - 1; i >= 0; i-- {
			marker := ""
			if i == len(snap.Ring)-1 {
				marker = " (current)"
			}
			fmt.Fprintf(&b, "| %d%s | %s | %s |\n", len(snap.Ring)-i, marker, snap.Ring[i].Tag, snap.Ring[i].Ref)
		}
		b.WriteString("\n")
	}

	b.WriteString("## History\n\n")
	if len(snap.History) == 0 {
		b.WriteString("_empty_\n\n")
	} else {
		b.WriteString("| # | tag | ref |\n|---|---|---|\n")
		for i := len(snap.History) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", len(snap.History)-i, snap.History[i].Tag, snap.History[i].Ref)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Peers\n\n")
	if len(snap.Peers) == 0 {
		b.WriteString("_none connected_\n")
		return b.String()
	}
	b.WriteString("| tag | phase | address |\n|---|---|---|\n")
	for _, p := range snap.Peers {
		tag := p.Tag
		if tag == "" {
			tag = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", tag, p.Phase, p.Name)
	}
	return b.String()
}

func modeLabel(m domain.Mode) string {
	switch m {
	case domain.ModeAtRest:
		return "tracking"
	case domain.ModeCycling:
		return "juggling"
	default:
		return "idle"
	}
}
