package mapper

import (
	"regexp"
	"strings"
)

var (
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|li|ul|ol|h[1-6]|table|tr|blockquote)>|<br\s*/?>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	spaceRe      = regexp.MustCompile(`[ \t]+`)
	blankRe      = regexp.MustCompile(`\n{3,}`)

	// The contract enumerates exactly these entities; anything else passes
	// through untouched.
	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// StripHTML flattens source-store markup into plain text: block-close tags
// become newlines, remaining tags are dropped, known entities decoded and
// whitespace collapsed.
func StripHTML(s string) string {
	s = blockCloseRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// Truncate cuts s to at most max characters, on a rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
