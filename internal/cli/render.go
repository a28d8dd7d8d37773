package cli

import (
	"fmt"
	"io"

	"coopcart-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleCategory = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "39"})
	styleChecked  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleRoomCode = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
)

// renderList prints items grouped by category, in the room's category order.
// Categories the order doesn't know about come last, in first-seen order.
func renderList(w io.Writer, items []model.Item, categoryOrder []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, styleDim.Render("List is empty."))
		return
	}

	byCategory := map[string][]model.Item{}
	var extra []string
	seen := map[string]bool{}
	for _, c := range categoryOrder {
		seen[c] = true
	}
	for _, it := range items {
		c := it.Category
		if c == "" {
			c = model.DefaultCategory
		}
		if !seen[c] {
			seen[c] = true
			extra = append(extra, c)
		}
		byCategory[c] = append(byCategory[c], it)
	}

	order := append(append([]string{}, categoryOrder...), extra...)
	for _, c := range order {
		group := byCategory[c]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintln(w, styleCategory.Render(c))
		for _, it := range group {
			fmt.Fprintln(w, "  "+renderItem(it))
		}
	}
}

func renderItem(it model.Item) string {
	mark := "[ ]"
	if it.Checked {
		mark = "[x]"
	}
	line := it.Name
	if it.Qty != nil {
		qty := fmt.Sprintf("%g", *it.Qty)
		if it.Unit != nil {
			qty += *it.Unit
		}
		line = qty + " " + line
	}
	if it.Notes != nil && *it.Notes != "" {
		line += styleDim.Render(" (" + *it.Notes + ")")
	}
	if it.Checked {
		line = styleChecked.Render(line)
	}
	return fmt.Sprintf("%s %s %s", mark, line, styleDim.Render(it.ID))
}
