package retrieval

import (
	"strings"
	"unicode"
)

// vocabulary is the fixed list of kOS domain terms scanned for in user
// queries, in priority order. A term matches as a case-insensitive substring.
var vocabulary = []string{
	"ship", "orbit", "stage", "throttle", "steering", "altitude",
	"apoapsis", "periapsis", "heading", "velocity", "maneuver", "node",
	"lock", "unlock", "wait", "when", "until", "body", "target",
	"engine", "warp", "vector", "direction", "rotation", "eta",
	"sas", "rcs", "gear", "lights", "brakes", "chutes",
	"terminal", "volume", "print", "log", "run", "list", "lexicon",
	"part", "resource", "fuel", "antenna", "sensor", "action group",
	"launch", "landing", "docking", "rendezvous", "transfer",
}

const minTokenLen = 3

// ExtractKeywords produces retrieval keywords for a free-text user query.
//
// Vocabulary terms that occur in the query come first, in vocabulary order.
// Then query tokens of length >= 3 that look like identifiers: fully
// upper-case, camel-cased with an internal capital, or containing the
// structure:suffix separator. Duplicates are removed case-insensitively.
func ExtractKeywords(query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	lower := strings.ToLower(query)

	var keywords []string
	seen := make(map[string]struct{})
	add := func(kw string) {
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, term := range vocabulary {
		if strings.Contains(lower, term) {
			add(term)
		}
	}

	for _, token := range tokenize(query) {
		if len([]rune(token)) < minTokenLen {
			continue
		}
		if isAllUpper(token) || hasInternalCapital(token) || strings.Contains(token, ":") {
			add(token)
		}
	}

	return keywords
}

// tokenize splits on whitespace and punctuation, keeping the ':' separator
// and '_' inside tokens.
func tokenize(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':' && r != '_'
	})
}

// isAllUpper reports whether the token contains at least one letter and no
// lower-case letters.
func isAllUpper(token string) bool {
	hasLetter := false
	for _, r := range token {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// hasInternalCapital reports the camel-case heuristic: an upper-case letter
// preceded by a lower-case one somewhere inside the token.
func hasInternalCapital(token string) bool {
	prevLower := false
	for _, r := range token {
		if unicode.IsUpper(r) && prevLower {
			return true
		}
		prevLower = unicode.IsLower(r)
	}
	return false
}
