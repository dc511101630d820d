package qa

import (
	"github.com/soundprediction/estratto/pkg/types"
)

// ToDocLabels converts passage-local gold spans into document token space
// using the same offset as the prediction remap. A (0, 0) label means the
// annotator marked the passage as unanswerable and becomes the (-1, -1)
// sentinel; labels that are already sentinels are dropped here and handled
// during reduction.
func ToDocLabels(labels []types.Span, pctx types.PassageContext) []types.Span {
	offset := pctx.DocOffset()
	out := make([]types.Span, 0, len(labels))
	for _, l := range labels {
		if l.StartT > 0 || l.EndT > 0 {
			out = append(out, types.Span{StartT: l.StartT + offset, EndT: l.EndT + offset})
			continue
		}
		if l.StartT == 0 && l.EndT == 0 {
			out = append(out, types.Span{StartT: types.NoAnswerT, EndT: types.NoAnswerT})
		}
	}
	return out
}

// ReduceLabels merges the per-passage document-space labels of one basket.
// Positive spans are deduplicated with set semantics (first occurrence
// keeps its position). When nothing positive survives, the document's true
// label is no-answer, represented as a singleton sentinel list.
func ReduceLabels(perPassage [][]types.Span) []types.Span {
	seen := make(map[types.Span]struct{})
	var positives []types.Span
	for _, labels := range perPassage {
		for _, l := range labels {
			if l.IsNoAnswer() {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			positives = append(positives, l)
		}
	}
	if len(positives) == 0 {
		return []types.Span{{StartT: types.NoAnswerT, EndT: types.NoAnswerT}}
	}
	return positives
}
