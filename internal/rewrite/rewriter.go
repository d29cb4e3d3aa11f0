package rewrite

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// linkPattern matches markdown links with an absolute http(s) target.
// Relative links are already relative and are not touched.
var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)

// Rewriter converts absolute in-domain markdown links into relative file
// paths so the mirrored tree links to itself instead of back to the live
// site.
type Rewriter struct {
	baseURL  string
	baseHost string
	basePath string
}

// NewRewriter creates a Rewriter for the given base URL. The base URL
// defines both the domain and the path prefix a link must live under to be
// rewritten.
func NewRewriter(baseURL string) (*Rewriter, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	// Page URLs arrive in canonical form with a lowercase scheme and host;
	// the stored base must match that form or no prefix ever strips.
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return &Rewriter{
		baseURL:  strings.TrimRight(u.String(), "/"),
		baseHost: u.Host,
		basePath: strings.TrimRight(u.Path, "/"),
	}, nil
}

// Rewrite processes every markdown link in document. In-domain targets
// become paths relative to the directory of pageURL's output file, with
// fragments preserved. Same-page links collapse to a bare fragment.
// External targets, and any link whose relative path cannot be computed,
// pass through unchanged; one bad link never affects the rest of the
// document.
func (r *Rewriter) Rewrite(document, pageURL string) string {
	sourceDir := path.Dir(OutputPath(pageURL, r.baseURL))
	pagePath, _ := splitFragment(pageURL)

	return linkPattern.ReplaceAllStringFunc(document, func(match string) string {
		groups := linkPattern.FindStringSubmatch(match)
		text, target := groups[1], groups[2]

		targetPath, fragment := splitFragment(target)
		canonical, ok := r.canonicalTarget(targetPath)
		if !ok {
			return match
		}

		// A link to the page itself collapses to its fragment; without a
		// fragment there is nothing useful to point at, so keep it.
		if canonical == pagePath || strings.TrimRight(canonical, "/") == strings.TrimRight(pagePath, "/") {
			if fragment == "" {
				return match
			}
			return fmt.Sprintf("[%s](#%s)", text, fragment)
		}

		rel, err := filepath.Rel(sourceDir, OutputPath(canonical, r.baseURL))
		if err != nil {
			return match
		}
		rel = filepath.ToSlash(rel)
		if fragment != "" {
			rel += "#" + fragment
		}
		return fmt.Sprintf("[%s](%s)", text, rel)
	})
}

// canonicalTarget reports whether a link target lives under the base domain
// and path prefix, returning it with the scheme and host lowercased so path
// derivation sees the same form normalized page URLs carry. Host comparison
// is case-insensitive; paths stay case-sensitive.
func (r *Rewriter) canonicalTarget(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(u.Host, r.baseHost) {
		return "", false
	}
	if r.basePath != "" {
		p := strings.TrimRight(u.Path, "/")
		if p != r.basePath && !strings.HasPrefix(u.Path, r.basePath+"/") {
			return "", false
		}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), true
}

// splitFragment separates a URL from its fragment identifier.
func splitFragment(rawURL string) (string, string) {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i], rawURL[i+1:]
	}
	return rawURL, ""
}
