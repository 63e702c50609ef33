package search

import (
	"strings"
)

type Strategy string

const (
	StrategyLiteral Strategy = "literal"
	StrategyTerms   Strategy = "terms"
)

// DetermineStrategy picks phrase matching for quoted, structured or very short
// queries and term overlap for everything else.
func DetermineStrategy(query string) Strategy {
	query = strings.TrimSpace(query)

	if strings.ContainsAny(query, "/:=") {
		return StrategyLiteral
	}
	if len(query) <= 3 {
		return StrategyLiteral
	}
	if len(query) > 1 && strings.HasPrefix(query, "\"") && strings.HasSuffix(query, "\"") {
		return StrategyLiteral
	}
	return StrategyTerms
}
