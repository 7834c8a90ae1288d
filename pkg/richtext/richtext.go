// Package richtext converts REDCap rich text to plain text. Field labels,
// notes and section headers written with the REDCap rich text editor arrive
// as HTML fragments.
package richtext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/usestring/redcap-mcp/pkg/client"
)

// LabelColumns are the data dictionary columns that may hold rich text.
var LabelColumns = []string{"field_label", "section_header", "field_note"}

const blockElements = "p, div, li, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote"

// PlainText returns the visible text of s with whitespace collapsed.
// Block elements and line breaks become single spaces.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find(blockElements).AppendHtml(" ")
	return collapse(doc.Text())
}

// PlainLabels returns copies of the dictionary rows with every label column
// converted to plain text. Other columns are left untouched.
func PlainLabels(rows []client.Record) []client.Record {
	out := make([]client.Record, len(rows))
	for i, row := range rows {
		cp := make(client.Record, len(row))
		for k, v := range row {
			cp[k] = v
		}
		for _, col := range LabelColumns {
			if s, ok := row[col].(string); ok && s != "" {
				cp[col] = PlainText(s)
			}
		}
		out[i] = cp
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
