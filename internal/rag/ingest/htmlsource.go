package ingest

import (
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// convertHTML renders raw HTML (a Source: "web" document) to Markdown
// before chunking, so the chunker's heading/table/paragraph structure
// detection sees Markdown rather than tags. domain anchors relative links
// absolute, matching the reference web-fetch tool's usage.
func convertHTML(html, domain string) (string, error) {
	if domain == "" {
		return htmltomarkdown.ConvertString(html)
	}
	return htmltomarkdown.ConvertString(html, converter.WithDomain(domain))
}
