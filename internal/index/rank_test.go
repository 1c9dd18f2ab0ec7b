package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		scores map[DocumentID]float64
		limit  int
		expect []DocumentID
	}{
		{
			name:   "descending score",
			scores: map[DocumentID]float64{1: 0.1, 2: 0.3, 3: 0.2},
			limit:  10,
			expect: []DocumentID{2, 3, 1},
		},
		{
			name:   "ties by ascending id",
			scores: map[DocumentID]float64{9: 0.5, 4: 0.5, 7: 0.5},
			limit:  10,
			expect: []DocumentID{4, 7, 9},
		},
		{
			name:   "zero scores excluded",
			scores: map[DocumentID]float64{0: 0, 1: 0.17},
			limit:  10,
			expect: []DocumentID{1},
		},
		{
			name:   "nan after finite scores",
			scores: map[DocumentID]float64{2: 0.5, 1: math.NaN(), 3: -0.2, 0: math.NaN(), 5: 0.9},
			limit:  10,
			expect: []DocumentID{5, 2, 3, 0, 1},
		},
		{
			name:   "nan cut by limit",
			scores: map[DocumentID]float64{1: math.NaN(), 4: 0.01},
			limit:  1,
			expect: []DocumentID{4},
		},
		{
			name:   "empty",
			scores: map[DocumentID]float64{},
			limit:  10,
			expect: []DocumentID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Rank(tt.scores, tt.limit))
		})
	}
}

func TestRank_TruncatesToLimit(t *testing.T) {
	scores := make(map[DocumentID]float64)
	for i := 0; i < 25; i++ {
		scores[DocumentID(i)] = float64(i + 1)
	}

	best := Rank(scores, DefaultRankLimit)

	assert.Len(t, best, 10)
	assert.Equal(t, DocumentID(24), best[0])
	assert.Equal(t, DocumentID(15), best[9])
}
