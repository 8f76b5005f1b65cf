package validation

import (
	"regexp"
	"strings"
)

var (
	scriptTags    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTags      = regexp.MustCompile(`<[^>]*>`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+\s*=\s*["'][^"']*["']`)
	queryStrip    = regexp.MustCompile(`[^\w\s-]`)
)

// StripTags removes HTML markup and inline event handlers and trims the result.
func StripTags(s string) string {
	s = scriptTags.ReplaceAllString(s, "")
	s = htmlTags.ReplaceAllString(s, "")
	s = eventHandlers.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeQuery keeps only word characters, whitespace and hyphens.
func SanitizeQuery(q string) string {
	return strings.TrimSpace(queryStrip.ReplaceAllString(q, ""))
}
