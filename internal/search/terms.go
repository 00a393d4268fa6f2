package search

import (
	"strings"
	"unicode"
)

// minTermLength drops short tokens that would match most titles.
const minTermLength = 3

var stopwords = toSet(
	"a", "about", "all", "am", "an", "and", "any", "anything", "are", "at", "be", "by",
	"can", "could", "did", "do", "does", "for", "from", "get", "got", "have", "has",
	"how", "i", "in", "is", "it", "its", "list", "me", "my", "need", "needs", "of",
	"on", "or", "plan", "planned", "plans", "please", "remind", "reminder", "reminders",
	"schedule", "scheduled", "should", "show", "tell", "that", "the", "there", "thing",
	"things", "this", "to", "up", "was", "were", "what", "whats", "when", "where",
	"which", "who", "will", "with", "you", "your",
)

// Temporal words are handled by the resolver; as title terms they only add noise.
var temporalWords = toSet(
	"today", "tonight", "tomorrow", "yesterday", "day", "days", "week", "weeks",
	"weekend", "month", "months", "next", "last", "morning", "afternoon", "evening",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// SignificantTerms returns the distinct lowercase query words worth matching
// against reminder titles, in query order.
func SignificantTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, word := range strings.Fields(query) {
		term := normalizeToken(word)
		if len([]rune(term)) < minTermLength || seen[term] {
			continue
		}
		if _, ok := stopwords[term]; ok {
			continue
		}
		if _, ok := temporalWords[term]; ok {
			continue
		}
		if isNumeric(term) {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// normalizeToken lowercases a token, strips edge punctuation and a trailing possessive.
func normalizeToken(token string) string {
	token = strings.ToLower(token)
	token = strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	token = strings.TrimSuffix(token, "'s")
	token = strings.TrimSuffix(token, "’s")
	return strings.ReplaceAll(token, "'", "")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' && r != '/' && r != ':' {
			return false
		}
	}
	return true
}
