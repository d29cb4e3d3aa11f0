package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Normalizer canonicalizes discovered links and decides whether they belong
// to the crawl. It is pure: construction captures the crawl's static scope
// (base domain, base path, exclusion pattern) and Normalize has no side
// effects.
type Normalizer struct {
	// baseHost is the host every crawled URL must match.
	baseHost string

	// basePath is the path prefix every crawled URL must live under.
	// Empty means the whole host is in scope.
	basePath string

	// exclude, when non-nil, rejects any resolved URL it matches.
	exclude *regexp.Regexp
}

// NewNormalizer creates a Normalizer scoped to the given base URL.
func NewNormalizer(baseURL string, exclude *regexp.Regexp) (*Normalizer, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	return &Normalizer{
		baseHost: strings.ToLower(u.Host),
		basePath: strings.TrimRight(u.Path, "/"),
		exclude:  exclude,
	}, nil
}

// Normalize resolves href against the page that referenced it and returns
// the canonical URL string, or ok=false when the link is out of scope.
//
// Rejection is not an error: most links on a page point somewhere we don't
// want to go (external sites, mailto:, fragments of the current page), and
// the caller just moves on to the next one.
func (n *Normalizer) Normalize(href, pageURL string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, n.baseHost) {
		return "", false
	}
	if !n.inBasePath(resolved.Path) {
		return "", false
	}

	// Canonical form: fragment stripped, lowercase scheme and host, no
	// trailing slash. Two hrefs that differ only in these never create
	// distinct frontier entries.
	resolved.Fragment = ""
	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = strings.ToLower(resolved.Host)
	if resolved.Path != "/" {
		resolved.Path = strings.TrimRight(resolved.Path, "/")
	}

	canonical := resolved.String()
	if n.exclude != nil && n.exclude.MatchString(canonical) {
		return "", false
	}
	return canonical, true
}

// inBasePath reports whether a resolved path lives under the base path
// prefix.
func (n *Normalizer) inBasePath(p string) bool {
	if n.basePath == "" {
		return true
	}
	trimmed := strings.TrimRight(p, "/")
	return trimmed == n.basePath || strings.HasPrefix(p, n.basePath+"/")
}
