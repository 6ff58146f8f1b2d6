package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/plantree/internal/model"
)

func TestForestIconsOrderAndCap(t *testing.T) {
	icons, hidden := forestIcons(model.Counts{Seedlings: 2, Trees: 1, Giants: 1}, 10)
	want := []string{seedlingIcon, seedlingIcon, treeIcon, giantIcon}
	if strings.Join(icons, "") != strings.Join(want, "") {
		t.Fatalf("unexpected icons: %v", icons)
	}
	if hidden != 0 {
		t.Fatalf("expected nothing hidden, got %d", hidden)
	}

	icons, hidden = forestIcons(model.Counts{Seedlings: 5, Giants: 3}, 6)
	if len(icons) != 6 || hidden != 2 {
		t.Fatalf("expected 6 icons and 2 hidden, got %d and %d", len(icons), hidden)
	}
}

func TestWrapIconsRespectsWidth(t *testing.T) {
	icons := []string{seedlingIcon, seedlingIcon, seedlingIcon, treeIcon, treeIcon}
	out := wrapIcons(icons, 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 8 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
	if lines[0] != seedlingIcon+" "+seedlingIcon+" "+seedlingIcon {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}

func TestWrapIconsSingleLineWhenUnbounded(t *testing.T) {
	if got := wrapIcons([]string{treeIcon, giantIcon}, 0); got != treeIcon+" "+giantIcon {
		t.Fatalf("unexpected output: %q", got)
	}
	if got := wrapIcons(nil, 10); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
