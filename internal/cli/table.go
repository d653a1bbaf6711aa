package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

const (
	titleWidth   = 48
	summaryWidth = 60
)

// renderArticles writes articles as a table, one row per article in corpus
// order.
func renderArticles(w io.Writer, articles []domain.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleWidth, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Summary", WidthMax: summaryWidth, WidthMaxEnforcer: text.Trim},
	})

	t.AppendHeader(table.Row{"#", "ID", "Title", "Link", "Summary", "Note"})
	for i, a := range articles {
		note := ""
		if a.Note != nil {
			note = a.Note.Title
		}
		t.AppendRow(table.Row{i + 1, a.ID, a.Title, a.Link, a.Summary, note})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(articles)})
	t.Render()
}
