package index

import (
	"math"
	"sort"
)

// DefaultRankLimit is how many documents are reported per query.
const DefaultRankLimit = 10

// Rank orders scored documents by descending score and returns at most
// limit IDs. Equal scores are ordered by ascending ID, and NaN scores come
// after every other score. Documents scoring exactly zero are omitted;
// there is no other floor and no padding.
func Rank(scores map[DocumentID]float64, limit int) []DocumentID {
	type scored struct {
		id    DocumentID
		score float64
	}
	candidates := make([]scored, 0, len(scores))
	for id, s := range scores {
		if s == 0 {
			continue
		}
		candidates = append(candidates, scored{id: id, score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aNaN, bNaN := math.IsNaN(a.score), math.IsNaN(b.score)
		switch {
		case aNaN != bNaN:
			return bNaN
		case !aNaN && a.score != b.score:
			return a.score > b.score
		}
		return a.id < b.id
	})

	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	best := make([]DocumentID, len(candidates))
	for i, c := range candidates {
		best[i] = c.id
	}
	return best
}
