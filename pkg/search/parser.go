package search

import (
	"strings"
)

type Filters struct {
	DocumentID string
	Query      string // text left after the filters are stripped
}

// ParseQuery extracts inline filters from a chat message.
// Supported:
// /doc:<id> -> restrict retrieval to one document
// <text>    -> remaining text is the query
func ParseQuery(raw string) Filters {
	filters := Filters{}
	var cleanParts []string

	for _, part := range strings.Fields(raw) {
		if strings.HasPrefix(strings.ToLower(part), "/doc:") {
			filters.DocumentID = part[len("/doc:"):]
			continue
		}
		cleanParts = append(cleanParts, part)
	}

	filters.Query = strings.Join(cleanParts, " ")
	return filters
}
