// Package qa implements the span extraction core: per-passage candidate
// generation from start/end token scores, cross-passage aggregation into
// document-level answers, and conversion of winning spans back into text.
package qa

import (
	"sort"

	"github.com/soundprediction/estratto/pkg/types"
)

// ScoreMatrix holds the compatibility scores for every (start, end) token
// pair of one passage. Entry (i, j) is the sum of the model's start score
// for token i and end score for token j. It is read-only once built.
type ScoreMatrix struct {
	seqLen int
	scores []float64 // row-major, seqLen * seqLen
}

// NewScoreMatrix builds the matrix by outer addition of the start and end
// logit vectors returned by the scoring model.
func NewScoreMatrix(startLogits, endLogits []float32) (*ScoreMatrix, error) {
	if len(startLogits) != len(endLogits) {
		return nil, types.ErrLogitLenMismatch
	}
	n := len(startLogits)
	m := &ScoreMatrix{
		seqLen: n,
		scores: make([]float64, n*n),
	}
	for i := 0; i < n; i++ {
		row := m.scores[i*n : (i+1)*n]
		start := float64(startLogits[i])
		for j := 0; j < n; j++ {
			row[j] = start + float64(endLogits[j])
		}
	}
	return m, nil
}

// SeqLen returns the passage sequence length.
func (m *ScoreMatrix) SeqLen() int {
	return m.seqLen
}

// At returns the score for "answer starts at i, ends at j".
func (m *ScoreMatrix) At(i, j int) float64 {
	return m.scores[i*m.seqLen+j]
}

// sortedSpans returns every flattened (start, end) index ordered by
// descending score. The sort is stable so ties keep row-major order.
func (m *ScoreMatrix) sortedSpans() []int {
	idx := make([]int, len(m.scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return m.scores[idx[a]] > m.scores[idx[b]]
	})
	return idx
}
