// Package render turns streamed Markdown into the HTML shown in the result area.
package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in generated text is omitted rather than passed through.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts src to HTML. Partial documents are fine; every call
// renders the whole accumulated text from scratch.
func Markdown(src string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return buf.String()
}
