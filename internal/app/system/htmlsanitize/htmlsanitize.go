// Package htmlsanitize strips markup from user-supplied text before it is
// forwarded to third-party services (reel captions, video titles and
// descriptions).
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute, keeping text content only.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed. Entities are decoded afterwards
// so "Tom &amp; Jerry" reaches the vendor as "Tom & Jerry".
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
