package search

import (
	"sort"
	"strings"
	"unicode"

	"docsearch-console/internal/model"
)

type Hit struct {
	Chunk model.DocumentChunk
	Score float64
}

// Retriever ranks an in-memory corpus of document chunks against a query.
type Retriever struct {
	chunks []model.DocumentChunk
}

func NewRetriever(chunks []model.DocumentChunk) *Retriever {
	return &Retriever{chunks: append([]model.DocumentChunk(nil), chunks...)}
}

// Search returns up to topK chunks with a positive score, best first.
func (r *Retriever) Search(raw string, topK int) []Hit {
	filters := ParseQuery(raw)
	query := strings.TrimSpace(filters.Query)
	if query == "" || topK <= 0 {
		return nil
	}

	strategy := DetermineStrategy(query)
	terms := tokenize(query)
	phrase := strings.ToLower(strings.Trim(query, "\""))

	var hits []Hit
	for _, c := range r.chunks {
		if filters.DocumentID != "" && c.DocumentId != filters.DocumentID {
			continue
		}

		var score float64
		switch strategy {
		case StrategyLiteral:
			if strings.Contains(strings.ToLower(c.Content), phrase) {
				score = 1
			}
		default:
			score = overlap(terms, tokenize(c.Content))
		}
		if score > 0 {
			hits = append(hits, Hit{Chunk: c, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// overlap is the share of distinct query terms present in the chunk.
func overlap(query, chunk []string) float64 {
	if len(query) == 0 {
		return 0
	}
	present := make(map[string]struct{}, len(chunk))
	for _, t := range chunk {
		present[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(query))
	matched := 0
	for _, t := range query {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := present[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
