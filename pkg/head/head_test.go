package head

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/estratto/pkg/qa"
	"github.com/soundprediction/estratto/pkg/types"
)

func TestNewRejectsUnbuiltKinds(t *testing.T) {
	for _, kind := range []Kind{KindTextClassification, KindTokenClassification, KindRegression, Kind("bogus")} {
		_, err := New(kind, types.DefaultQAConfig(), 0)
		assert.Error(t, err, string(kind))
	}
}

func TestNewQuestionAnswering(t *testing.T) {
	h, err := New(KindQuestionAnswering, types.DefaultQAConfig(), 0)
	require.NoError(t, err)
	assert.Equal(t, KindQuestionAnswering, h.Kind())
}

func TestQADecodeEndToEnd(t *testing.T) {
	h := NewQA(types.QAConfig{NBest: 5, MaxAnswerLength: 30}, 0)

	start := []float32{0, 0, 0, 0, 0, 9, 0, 0}
	end := []float32{0, 0, 0, 0, 0, 0, 0, 9}
	pctx := types.PassageContext{PassageStartT: 0, Seq2StartT: 3, NNonPadding: 8}

	cands, err := h.DecodePassage(start, end, pctx)
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, 5, cands[0].StartT)
	assert.Equal(t, 7, cands[0].EndT)

	out, err := h.DecodeBaskets(context.Background(), []qa.BasketCandidates{{
		BasketID:   "d-q",
		NDocTokens: 5,
		Passages:   []qa.PassageCandidates{{Context: pctx, Candidates: cands}},
	}})
	require.NoError(t, err)
	require.NotEmpty(t, out["d-q"])
	assert.Equal(t, 2, out["d-q"][0].StartT)
	assert.Equal(t, 4, out["d-q"][0].EndT)
}
