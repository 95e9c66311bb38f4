// Package ascii renders width-aware boxes and tables for terminal
// output. Display widths come from go-runewidth so emoji and CJK
// content keep borders aligned.
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Box builds a bordered box around the provided lines. Lines are
// left-aligned with single-space padding on each side.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := runewidth.StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	border := strings.Repeat("─", maxWidth+2)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		fill := maxWidth - runewidth.StringWidth(line)
		sb.WriteString("│ " + line + strings.Repeat(" ", fill) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Table renders headers and rows in aligned columns with a rule under
// the header. Rows shorter than the header render empty trailing
// cells; extra cells beyond the header count are dropped.
func Table(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(cell)
			if i < len(headers)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width))
		if i < len(widths)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// Truncate shortens a string to the given display width, appending an
// ellipsis when it had to cut and there is room for one.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return prefixWithWidth(value, width)
	}
	return prefixWithWidth(value, width-3) + "..."
}

func prefixWithWidth(s string, target int) string {
	width := 0
	var sb strings.Builder
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if width+w > target {
			break
		}
		width += w
		sb.WriteRune(r)
	}
	return sb.String()
}
