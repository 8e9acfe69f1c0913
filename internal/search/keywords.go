package search

import (
	"regexp"
	"strings"
)

var keywordSeparators = regexp.MustCompile(`[,\s/\-]+`)

// ParseKeywords splits a query into search keywords. Sections separated by
// '|' are split on commas, whitespace, slashes and hyphens. Placeholders and
// single characters are dropped, and duplicates are removed case-insensitively
// keeping the first spelling.
func ParseKeywords(query string) []string {
	var keywords []string
	seen := make(map[string]bool)

	for _, section := range strings.Split(query, "|") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		for _, word := range keywordSeparators.Split(section, -1) {
			if len(word) <= 1 || blank(word) {
				continue
			}
			lower := strings.ToLower(word)
			if seen[lower] {
				continue
			}
			seen[lower] = true
			keywords = append(keywords, word)
		}
	}
	return keywords
}
