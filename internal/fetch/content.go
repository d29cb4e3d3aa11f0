package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ContentOptions configures how raw markup is turned into document text.
// The knobs mirror what the crawl engine supplies to the fetch capability:
// a word-count floor, chrome stripping, and an optional content selector.
type ContentOptions struct {
	// WordCountMin discards pages whose extracted text falls below this
	// many words. Zero disables the floor.
	WordCountMin int

	// StripSelectors are CSS selectors removed before extraction
	// (navigation chrome, overlays, footers).
	StripSelectors []string

	// ContentSelector, when set, restricts extraction to the first
	// matching element. When empty the readability heuristic picks the
	// main content region.
	ContentSelector string
}

// buildResult converts raw page markup into a Result: strip chrome, locate
// the main content region, render it as markdown, and apply the word-count
// floor. Both fetcher implementations share this path so that a page
// produces identical output regardless of how it was loaded.
func buildResult(rawHTML, pageURL string, opts ContentOptions) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range opts.StripSelectors {
		doc.Find(sel).Remove()
	}

	// Locate the content region. An explicit selector wins; otherwise we
	// let readability score the DOM, falling back to <body> when it finds
	// nothing (minimal pages confuse its heuristics).
	var contentHTML string
	if opts.ContentSelector != "" {
		sel := doc.Find(opts.ContentSelector).First()
		if sel.Length() > 0 {
			contentHTML, err = goquery.OuterHtml(sel)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize content region: %w", err)
			}
		}
	}
	if contentHTML == "" {
		stripped, err := doc.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize page: %w", err)
		}
		article, err := readability.FromReader(strings.NewReader(stripped), u)
		if err == nil && strings.TrimSpace(article.Content) != "" {
			contentHTML = article.Content
			if title == "" {
				title = article.Title
			}
		} else {
			body := doc.Find("body").First()
			if body.Length() > 0 {
				contentHTML, _ = goquery.OuterHtml(body) //nolint:errcheck // body came from a successful parse
			} else {
				contentHTML = stripped
			}
		}
	}

	markdown := renderMarkdown(contentHTML, u)
	words := len(strings.Fields(markdown))
	if opts.WordCountMin > 0 && words < opts.WordCountMin {
		return nil, fmt.Errorf("%w: %d words", ErrContentTooShort, words)
	}

	return &Result{
		HTML:      rawHTML,
		Markdown:  markdown,
		Title:     title,
		WordCount: words,
	}, nil
}

// renderMarkdown produces a light markdown rendition of an HTML fragment:
// headings, paragraphs, lists, code, and links. Link targets are resolved to
// absolute URLs so the link-rewriting pass downstream can decide which of
// them point at sibling documents.
func renderMarkdown(fragment string, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		renderNode(&b, node, base)
	}

	// Collapse runs of blank lines left behind by skipped elements.
	out := strings.TrimSpace(b.String())
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return out
}

// renderNode walks the DOM emitting markdown. Block elements terminate with
// a blank line; inline elements contribute to the current line.
func renderNode(b *strings.Builder, n *html.Node, base *url.URL) {
	if n.Type == html.TextNode {
		b.WriteString(collapseSpace(n.Data))
		return
	}
	if n.Type != html.ElementNode && n.Type != html.DocumentNode {
		return
	}

	switch n.Data {
	case "script", "style", "noscript", "iframe", "svg", "form":
		return

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
		renderChildren(b, n, base)
		b.WriteString("\n\n")
		return

	case "p", "div", "section", "article", "main", "header", "table", "tr":
		renderChildren(b, n, base)
		b.WriteString("\n\n")
		return

	case "br":
		b.WriteString("\n")
		return

	case "li":
		b.WriteString("\n- ")
		renderChildren(b, n, base)
		return

	case "ul", "ol":
		renderChildren(b, n, base)
		b.WriteString("\n\n")
		return

	case "pre":
		b.WriteString("\n\n```\n")
		b.WriteString(strings.TrimSpace(textContent(n)))
		b.WriteString("\n```\n\n")
		return

	case "code":
		b.WriteString("`")
		b.WriteString(textContent(n))
		b.WriteString("`")
		return

	case "a":
		href := attrValue(n, "href")
		text := collapseSpace(textContent(n))
		if href == "" || text == "" {
			renderChildren(b, n, base)
			return
		}
		resolved := href
		if u, err := url.Parse(href); err == nil {
			resolved = base.ResolveReference(u).String()
		}
		fmt.Fprintf(b, "[%s](%s)", text, resolved)
		return

	case "strong", "b":
		b.WriteString("**")
		renderChildren(b, n, base)
		b.WriteString("**")
		return

	case "em", "i":
		b.WriteString("*")
		renderChildren(b, n, base)
		b.WriteString("*")
		return
	}

	renderChildren(b, n, base)
}

// renderChildren renders all child nodes in document order.
func renderChildren(b *strings.Builder, n *html.Node, base *url.URL) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c, base)
	}
}

// textContent returns the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace collapses runs of whitespace into single spaces while
// preserving a leading/trailing space when the original had one, so inline
// elements don't glue words together.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		out = " " + out
	}
	last := s[len(s)-1]
	if last == ' ' || last == '\n' || last == '\t' {
		out += " "
	}
	return out
}

// attrValue retrieves an attribute value from an HTML node.
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
