package rewrite

import (
	"path"
	"regexp"
	"strings"
)

// unsafeChars matches characters that cannot appear in file names on common
// filesystems. The path separator is deliberately not in the set: URL path
// hierarchy becomes directory hierarchy.
var unsafeChars = regexp.MustCompile(`[<>:"\\|?*]`)

// OutputPath maps a page URL to its file path under the output root.
//
// The mapping is deterministic and shared by the storage writer and the link
// rewriter; if the two ever diverged, rewritten links would point at files
// that don't exist. Rules, in order:
//
//   - strip the base URL prefix and any fragment
//   - replace filesystem-unsafe characters with underscores
//   - an empty remainder becomes index.md (the base URL itself)
//   - a final segment with a dot is treated as a filename and gets a .md
//     suffix unless it already has one
//   - anything else is treated as a directory and gets index.md inside it
func OutputPath(pageURL, baseURL string) string {
	target := pageURL
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}

	rel := strings.TrimPrefix(target, baseURL)
	rel = strings.Trim(rel, "/")
	rel = unsafeChars.ReplaceAllString(rel, "_")

	if rel == "" {
		return "index.md"
	}
	if strings.HasSuffix(rel, ".md") {
		return rel
	}
	if strings.Contains(path.Base(rel), ".") {
		return rel + ".md"
	}
	return rel + "/index.md"
}
