package qa

import (
	"strings"

	"github.com/soundprediction/estratto/pkg/types"
)

// SpanToString turns one document-level token span into the literal
// substring of the document text. The (-1, -1) sentinel maps to the empty
// string unconditionally. The end index is inclusive on the token level and
// is shifted to exclusive here; predictions occasionally land on the final
// token where no following offset exists, so the shifted end is clamped to
// the table length and then reads to the end of the text.
func SpanToString(startT, endT int, tokenOffsets []int, clearText string) string {
	s, _, _ := spanToString(startT, endT, tokenOffsets, clearText)
	return s
}

func spanToString(startT, endT int, tokenOffsets []int, clearText string) (string, int, int) {
	if startT == types.NoAnswerT && endT == types.NoAnswerT {
		return "", 0, 0
	}
	nTokens := len(tokenOffsets)

	// Point at the first token after the span instead of the last token
	// inside it.
	endT++
	if endT > nTokens {
		endT = nTokens
	}

	startCh := tokenOffsets[startT]
	var endCh int
	if endT == nTokens {
		endCh = len(clearText)
	} else {
		endCh = tokenOffsets[endT]
	}
	return strings.TrimSpace(clearText[startCh:endCh]), startCh, endCh
}

// Stringify converts a basket's reduced document candidates into answers,
// preserving their ranked order.
func Stringify(preds []types.DocCandidate, tokenOffsets []int, clearText string) []types.Answer {
	answers := make([]types.Answer, 0, len(preds))
	for _, p := range preds {
		text, startCh, endCh := spanToString(p.StartT, p.EndT, tokenOffsets, clearText)
		answers = append(answers, types.Answer{
			Text:    text,
			StartT:  p.StartT,
			EndT:    p.EndT,
			StartCh: startCh,
			EndCh:   endCh,
			Score:   p.Score,
		})
	}
	return answers
}
