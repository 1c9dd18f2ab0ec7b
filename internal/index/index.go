package index

import (
	"math"
	"sort"
)

// DocumentID identifies one chunk of a tab's content. IDs are scoped to
// a single tab.
type DocumentID uint64

// Document is one chunk of tab content.
type Document struct {
	ID      DocumentID
	Content string
}

// Index is an incremental TF-IDF index over a set of documents.
//
// bags records the distinct tokens last indexed for each document so that a
// replace or remove can retract exactly what was added. words maps each
// token to its per-document term frequency.
//
// Removing the last document that contains a token leaves an empty entry
// for that token in words. The leak is bounded by the vocabulary size and
// the entry is reused if the token reappears.
type Index struct {
	bags      map[DocumentID]map[string]struct{}
	words     map[string]map[DocumentID]float64
	documents int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		bags:  make(map[DocumentID]map[string]struct{}),
		words: make(map[string]map[DocumentID]float64),
	}
}

// Update indexes content under id, replacing whatever was previously
// indexed for id. Indexing the same id twice never accumulates: the last
// write wins.
func (idx *Index) Update(id DocumentID, content string) {
	idx.Remove(id)

	tokens := Tokenize(content)
	bag := make(map[string]struct{}, len(tokens))
	if len(tokens) > 0 {
		weight := 1 / float64(len(tokens))
		for _, token := range tokens {
			freq, ok := idx.words[token]
			if !ok {
				freq = make(map[DocumentID]float64)
				idx.words[token] = freq
			}
			freq[id] += weight
			bag[token] = struct{}{}
		}
	}

	idx.bags[id] = bag
	idx.documents++
}

// Remove retracts id from the index. It reports whether id was indexed;
// removing an unknown id is a no-op.
func (idx *Index) Remove(id DocumentID) bool {
	bag, ok := idx.bags[id]
	if !ok {
		return false
	}
	delete(idx.bags, id)
	idx.documents--
	for token := range bag {
		if freq, ok := idx.words[token]; ok {
			delete(freq, id)
		}
	}
	return true
}

// Score computes the TF-IDF score of every document matching at least one
// query term. Terms are taken verbatim from whitespace-separated query
// text; unknown terms contribute nothing. The result is never nil.
func (idx *Index) Score(query string) map[DocumentID]float64 {
	scores := make(map[DocumentID]float64)
	n := float64(idx.documents)
	for _, term := range QueryTerms(query) {
		freq, ok := idx.words[term]
		if !ok {
			continue
		}
		idf := math.Log((1 + n) / (1 + float64(len(freq))))
		for id, tf := range freq {
			scores[id] += tf * idf
		}
	}
	return scores
}

// Vocabulary returns every distinct token of the currently indexed
// documents, sorted.
func (idx *Index) Vocabulary() []string {
	set := make(map[string]struct{})
	for _, bag := range idx.bags {
		for token := range bag {
			set[token] = struct{}{}
		}
	}
	words := make([]string, 0, len(set))
	for token := range set {
		words = append(words, token)
	}
	sort.Strings(words)
	return words
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return idx.documents
}

// Terms returns the number of token entries held, including entries left
// empty by removals.
func (idx *Index) Terms() int {
	return len(idx.words)
}
