// Package classify buckets user queries into intent categories that
// drive prompt shaping and model recommendation.
package classify

import (
	"strings"
)

// QueryType is a recognized query intent.
type QueryType string

const (
	Summary      QueryType = "summary"
	WordAnalysis QueryType = "word_analysis"
	Quiz         QueryType = "quiz"
	Translation  QueryType = "translation"
	Explanation  QueryType = "explanation"
	General      QueryType = "general"
)

// rules are checked in priority order; the first category with a
// keyword hit wins, so a query mentioning both "word" and "translate"
// classifies as word analysis.
var rules = []struct {
	qt       QueryType
	keywords []string
}{
	{Summary, []string{"summary", "summarize", "overview", "brief"}},
	{WordAnalysis, []string{"word", "vocabulary", "pronunciation", "meaning"}},
	{Quiz, []string{"quiz", "question", "test", "exam"}},
	{Translation, []string{"translate", "hindi", "english", "language"}},
	{Explanation, []string{"explain", "what is", "how to", "why"}},
}

// Classify buckets a query by case-insensitive substring match against
// the priority-ordered keyword lists, defaulting to General.
func Classify(query string) QueryType {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.qt
			}
		}
	}
	return General
}
