package provider

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^\\s*```[\\w]*\\s*\\n?")
	closingFence = regexp.MustCompile("```[\\s\\n]*$")
)

// Reformat strips a Markdown code fence wrapping content and the
// surrounding whitespace
func Reformat(content string) string {
	content = openingFence.ReplaceAllString(content, "")
	content = closingFence.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// ReformatAll reformats every completion and drops the ones left empty
func ReformatAll(completions []string) []string {
	out := make([]string, 0, len(completions))
	for _, c := range completions {
		if c = Reformat(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
