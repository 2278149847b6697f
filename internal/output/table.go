package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders tables as box-drawn text.
type TableFormatter struct{}

// Format renders t as a rounded table.
func (f *TableFormatter) Format(t *Table) (string, error) {
	if t == nil {
		return "", nil
	}

	// Footers carry counts like "2 prompts"; keep them as written.
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault

	w := table.NewWriter()
	w.SetStyle(style)
	if t.Title != "" {
		w.SetTitle(t.Title)
	}
	w.AppendHeader(toRow(t.Header))

	for _, r := range t.Rows {
		w.AppendRow(toRow(r))
	}

	if t.Footer != "" && len(t.Header) > 0 {
		footer := make([]string, len(t.Header))
		footer[len(footer)-1] = t.Footer
		w.AppendFooter(toRow(footer))
	}

	return w.Render(), nil
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
