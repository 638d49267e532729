// Package category extracts category-link edges from wikitext by forward
// pattern matching over [[Category:...]] bracket tokens. Template
// transclusion is never expanded (see the open question this leaves,
// recorded in DESIGN.md): a category introduced only via a transcluded
// template is invisible to this scanner, exactly as it is to a reader of
// the raw wikitext alone.
package category

import (
	"regexp"
	"strings"

	"wikistore/internal/slugify"
)

// categoryLink matches [[Category:Name]] or [[Category:Name|sort key]],
// case-insensitively on the "Category" token, the way MediaWiki itself
// treats the namespace prefix.
var categoryLink = regexp.MustCompile(`(?i)\[\[\s*Category\s*:\s*([^|\]\n]+?)\s*(?:\|[^\]]*)?\]\]`)

// Scan returns the de-duplicated, normalised category slugs a page's
// wikitext links to, in first-occurrence order.
func Scan(wikitext string) []string {
	matches := categoryLink.FindAllStringSubmatch(wikitext, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		slug := slugify.Slugify(name, nil)
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}
