package content

import "strings"

// DedupeLinks collapses links sharing a URI. Each URI keeps the position of
// its first occurrence and the title of its last one. Links without a title
// or URI are dropped.
func DedupeLinks(links []SourceLink) []SourceLink {
	index := make(map[string]int, len(links))
	result := make([]SourceLink, 0, len(links))

	for _, link := range links {
		if link.URI == "" || link.Title == "" {
			continue
		}
		if i, ok := index[link.URI]; ok {
			result[i] = link
			continue
		}
		index[link.URI] = len(result)
		result = append(result, link)
	}

	return result
}

// CleanHashtags strips leading '#', trims whitespace and drops empty or
// case-insensitively repeated tags.
func CleanHashtags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]bool)

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimLeft(tag, "#")
		tag = strings.TrimSpace(tag)

		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, tag)
	}

	return result
}

// FormatHashtags renders tags the way they are posted: "#a #b".
func FormatHashtags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}
