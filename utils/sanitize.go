package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips all markup from configured text and returns plain
// text, ready to be escaped by html/template.
func SanitizeText(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}
