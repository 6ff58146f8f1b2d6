package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/plantree/internal/model"
)

const (
	seedlingIcon = "🌱"
	treeIcon     = "🌳"
	giantIcon    = "🌲"
	maxIcons     = 120
)

// forestIcons lists one icon per unit, biggest tier last, capped at limit.
// The number of units left out is returned separately.
func forestIcons(c model.Counts, limit int) ([]string, int) {
	total := c.Seedlings + c.Trees + c.Giants
	icons := make([]string, 0, min(total, limit))
	add := func(icon string, n int) {
		for i := 0; i < n && len(icons) < limit; i++ {
			icons = append(icons, icon)
		}
	}
	add(seedlingIcon, c.Seedlings)
	add(treeIcon, c.Trees)
	add(giantIcon, c.Giants)
	return icons, total - len(icons)
}

// wrapIcons lays icons out left to right, separated by a space, breaking
// lines so that no line is wider than width cells.
func wrapIcons(icons []string, width int) string {
	if len(icons) == 0 {
		return ""
	}
	if width <= 0 {
		return strings.Join(icons, " ")
	}
	var out strings.Builder
	lineWidth := 0
	for _, icon := range icons {
		w := runewidth.StringWidth(icon)
		if lineWidth > 0 && lineWidth+1+w > width {
			out.WriteRune('\n')
			lineWidth = 0
		}
		if lineWidth > 0 {
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(icon)
		lineWidth += w
	}
	return out.String()
}

func renderForest(c model.Counts, width int) string {
	icons, hidden := forestIcons(c, maxIcons)
	if len(icons) == 0 {
		return pendingStyle.Render("nothing planted yet")
	}
	forest := wrapIcons(icons, width)
	if hidden > 0 {
		forest += pendingStyle.Render(fmt.Sprintf(" +%d", hidden))
	}
	return forest
}
