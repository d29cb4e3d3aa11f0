package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// navSelectors are tried first when extracting links. Documentation sites
// put their table of contents in navigation chrome, so these find the bulk
// of the crawlable surface even on pages whose body text links sparsely.
var navSelectors = "nav a, aside a, .sidebar a, .menu a, .toc a"

// Extractor pulls candidate crawl URLs out of page markup.
type Extractor struct {
	normalizer *Normalizer
}

// NewExtractor creates an Extractor that filters links through the given
// normalizer.
func NewExtractor(normalizer *Normalizer) *Extractor {
	return &Extractor{normalizer: normalizer}
}

// Extract returns the normalized, in-scope URLs referenced by the page, in
// document order with navigation links first and without duplicates.
// Markup that fails to parse yields no links; a page we cannot parse is a
// page whose links we cannot trust.
func (e *Extractor) Extract(htmlContent, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)

	collect := func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		normalized, ok := e.normalizer.Normalize(href, pageURL)
		if !ok {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
	}

	doc.Find(navSelectors).Each(collect)
	doc.Find("a[href]").Each(collect)

	return links
}
