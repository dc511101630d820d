package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/estratto/pkg/types"
)

// matrixFromScores builds a ScoreMatrix where start logit i and end logit j
// are taken directly from the given vectors.
func matrixFromScores(t *testing.T, start, end []float32) *ScoreMatrix {
	t.Helper()
	m, err := NewScoreMatrix(start, end)
	require.NoError(t, err)
	return m
}

func TestNewScoreMatrixOuterSum(t *testing.T) {
	m := matrixFromScores(t, []float32{1, 2, 3}, []float32{10, 20, 30})
	assert.Equal(t, 3, m.SeqLen())
	assert.InDelta(t, 11.0, m.At(0, 0), 1e-9)
	assert.InDelta(t, 32.0, m.At(1, 2), 1e-9)
	assert.InDelta(t, 13.0, m.At(2, 0), 1e-9)
}

func TestNewScoreMatrixLengthMismatch(t *testing.T) {
	_, err := NewScoreMatrix([]float32{1, 2}, []float32{1})
	assert.ErrorIs(t, err, types.ErrLogitLenMismatch)
}

func TestGenerateAlwaysContainsNoAnswer(t *testing.T) {
	// Strong positive span scores so (0,0) never ranks on its own.
	start := []float32{-10, 0, 5, 4, 3, 2, 1, 0}
	end := []float32{-10, 0, 5, 4, 3, 2, 1, 0}
	m := matrixFromScores(t, start, end)
	pctx := types.PassageContext{Seq2StartT: 1, NNonPadding: 8}

	g := NewGenerator(types.QAConfig{NBest: 5, MaxAnswerLength: 30})
	cands := g.Generate(m, pctx)

	require.NotEmpty(t, cands)
	assert.LessOrEqual(t, len(cands), 6)
	found := false
	for _, c := range cands {
		if c.IsNoAnswer() {
			found = true
			// The fallback carries the raw (0,0) matrix score.
			assert.InDelta(t, m.At(0, 0), c.Score, 1e-9)
		}
	}
	assert.True(t, found, "no-answer entry must always be present")
}

func TestGenerateValidity(t *testing.T) {
	start := []float32{0, 1, 9, 8, 7, 6, 5, 4, 3, 2}
	end := []float32{0, 1, 9, 8, 7, 6, 5, 4, 3, 2}
	m := matrixFromScores(t, start, end)
	pctx := types.PassageContext{Seq2StartT: 3, NNonPadding: 8}
	maxLen := 3

	g := NewGenerator(types.QAConfig{NBest: 5, MaxAnswerLength: maxLen})
	for _, c := range g.Generate(m, pctx) {
		if c.IsNoAnswer() {
			continue
		}
		assert.GreaterOrEqual(t, c.EndT, c.StartT)
		assert.LessOrEqual(t, c.EndT-c.StartT+1, maxLen)
		assert.Less(t, c.StartT, pctx.NNonPadding)
		assert.Less(t, c.EndT, pctx.NNonPadding)
		assert.GreaterOrEqual(t, c.StartT, pctx.Seq2StartT)
		assert.GreaterOrEqual(t, c.EndT, pctx.Seq2StartT)
	}
}

func TestGenerateLengthBound(t *testing.T) {
	n := 12
	start := make([]float32, n)
	end := make([]float32, n)
	for i := 0; i < n; i++ {
		start[i] = float32(i)
		end[i] = float32(n - i)
	}
	m := matrixFromScores(t, start, end)
	pctx := types.PassageContext{Seq2StartT: 2, NNonPadding: n}

	g := NewGenerator(types.QAConfig{NBest: 3, MaxAnswerLength: 30})
	cands := g.Generate(m, pctx)
	assert.LessOrEqual(t, len(cands), 4)
}

func TestGenerateTopCellIsNoAnswer(t *testing.T) {
	// The absolute top-scoring cell is (0,0): the first element must be the
	// sentinel with the raw score, and no duplicate sentinel is appended.
	start := []float32{100, 0, 1, 2, 3}
	end := []float32{100, 0, 1, 2, 3}
	m := matrixFromScores(t, start, end)
	pctx := types.PassageContext{Seq2StartT: 1, NNonPadding: 5}

	g := NewGenerator(types.QAConfig{NBest: 5, MaxAnswerLength: 30})
	cands := g.Generate(m, pctx)

	require.NotEmpty(t, cands)
	assert.True(t, cands[0].IsNoAnswer())
	assert.InDelta(t, 200.0, cands[0].Score, 1e-9)

	sentinels := 0
	for _, c := range cands {
		if c.IsNoAnswer() {
			sentinels++
		}
	}
	assert.Equal(t, 1, sentinels)
}

func TestGenerateMalformedContext(t *testing.T) {
	m := matrixFromScores(t, []float32{1, 2, 3}, []float32{1, 2, 3})
	pctx := types.PassageContext{Seq2StartT: 1, NNonPadding: 0}

	g := NewGenerator(types.DefaultQAConfig())
	cands := g.Generate(m, pctx)

	// Nothing passes the filter, only the fallback remains.
	require.Len(t, cands, 1)
	assert.True(t, cands[0].IsNoAnswer())
	assert.InDelta(t, 2.0, cands[0].Score, 1e-9)
}

func TestGenerateEmptyMatrix(t *testing.T) {
	m := matrixFromScores(t, nil, nil)
	g := NewGenerator(types.DefaultQAConfig())
	cands := g.Generate(m, types.PassageContext{})
	require.Len(t, cands, 1)
	assert.True(t, cands[0].IsNoAnswer())
}

func TestGenerateStableTieBreak(t *testing.T) {
	// All scores equal: row-major order decides, so the first valid span in
	// row-major order wins the first slot.
	start := []float32{0, 0, 0, 0}
	end := []float32{0, 0, 0, 0}
	m := matrixFromScores(t, start, end)
	pctx := types.PassageContext{Seq2StartT: 1, NNonPadding: 4}

	g := NewGenerator(types.QAConfig{NBest: 2, MaxAnswerLength: 30})
	cands := g.Generate(m, pctx)

	require.GreaterOrEqual(t, len(cands), 2)
	assert.True(t, cands[0].IsNoAnswer(), "(0,0) precedes all other cells in row-major order")
	assert.Equal(t, types.Candidate{StartT: 1, EndT: 1, Score: 0}, cands[1])
}
