// Package htmlsanitize cleans user-supplied HTML before it is stored.
//
// Blog content is rich text from the admin editor and keeps a UGC-safe
// subset of HTML. Contact form fields are plain text; any markup in them is
// stripped.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = newUGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("code", "pre", "table")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize returns s with unsafe elements and attributes removed. Scripts,
// event handlers, iframes, style tags and javascript: URLs never survive.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// StripTags removes all markup, keeping the text content.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<")
}

// SanitizeFields applies Sanitize to the named string fields of doc, in
// place. Missing and non-string fields are left alone.
func SanitizeFields(doc map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := doc[k].(string); ok {
			doc[k] = Sanitize(v)
		}
	}
}

// StripAllStrings applies StripTags to every top-level string field of doc,
// in place.
func StripAllStrings(doc map[string]any) {
	for k, v := range doc {
		if s, ok := v.(string); ok && !IsPlainText(s) {
			doc[k] = StripTags(s)
		}
	}
}
