package feeds

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText reduces an HTML fragment to plain text. Text nodes are joined
// with single spaces and runs of whitespace collapse. Script and style
// contents are dropped.
func HTMLToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseWhitespace(fragment)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return collapseWhitespace(strings.Join(parts, " "))
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			*parts = append(*parts, child.Text())
			return
		}
		collectText(child, parts)
	})
}

func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
