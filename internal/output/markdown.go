package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders tables as GitHub-flavored markdown.
type MarkdownFormatter struct{}

// Format renders t as a markdown table.
func (f *MarkdownFormatter) Format(t *Table) (string, error) {
	if t == nil {
		return "", nil
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(t.Title)))
	}

	sb.WriteString("| " + joinCells(t.Header) + " |\n")
	dividers := make([]string, len(t.Header))
	for i := range dividers {
		dividers[i] = "---"
	}
	sb.WriteString("|" + strings.Join(dividers, "|") + "|\n")

	for _, row := range t.Rows {
		sb.WriteString("| " + joinCells(row) + " |\n")
	}

	if t.Footer != "" {
		sb.WriteString(fmt.Sprintf("\n**%s**\n", escapeMarkdownCell(t.Footer)))
	}
	return sb.String(), nil
}

func joinCells(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeMarkdownCell(c)
	}
	return strings.Join(escaped, " | ")
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}
