package index

import "strings"

// Tokenize splits document content into maximal runs of ASCII letters and
// lowercases them. Every other byte is a separator, and empty runs are
// discarded.
func Tokenize(content string) []string {
	var tokens []string
	start := -1
	for i := 0; i < len(content); i++ {
		if isASCIILetter(content[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, strings.ToLower(content[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, strings.ToLower(content[start:]))
	}
	return tokens
}

// QueryTerms splits a query on whitespace and removes duplicates, keeping
// first-occurrence order. Unlike Tokenize it neither lowercases nor strips
// punctuation: query terms come from the vocabulary the index already
// published, so they are matched verbatim.
func QueryTerms(query string) []string {
	fields := strings.Fields(query)
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
