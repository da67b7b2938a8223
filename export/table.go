package export

import (
	"bytes"
	"html/template"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/brandscrape/models"
)

var tableTmpl = template.Must(template.New("table").Parse(`<table class="records">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Records}}
<tr>{{range .Row}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>`))

// markdownConverter is goroutine-safe and shared by all callers.
var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// HTMLTable renders records as an HTML table fragment with the export
// columns as header. Cell values are HTML-escaped.
func HTMLTable(records []models.ScrapedRecord) (template.HTML, error) {
	var buf bytes.Buffer
	err := tableTmpl.Execute(&buf, struct {
		Columns []string
		Records []models.ScrapedRecord
	}{models.RecordColumns, records})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Markdown renders records as a Markdown table for terminal and MCP output.
func Markdown(records []models.ScrapedRecord) (string, error) {
	fragment, err := HTMLTable(records)
	if err != nil {
		return "", err
	}
	return markdownConverter.ConvertString(string(fragment))
}
