package qa

import (
	"github.com/soundprediction/estratto/pkg/types"
)

// Generator proposes candidate answer spans for a single passage.
type Generator struct {
	cfg types.QAConfig
}

// NewGenerator creates a generator with the given ranking parameters.
// Zero values fall back to the defaults.
func NewGenerator(cfg types.QAConfig) *Generator {
	def := types.DefaultQAConfig()
	if cfg.NBest <= 0 {
		cfg.NBest = def.NBest
	}
	if cfg.MaxAnswerLength <= 0 {
		cfg.MaxAnswerLength = def.MaxAnswerLength
	}
	return &Generator{cfg: cfg}
}

// Generate walks the score matrix in descending score order and collects the
// first NBest valid spans. The output always includes the (0, 0) no-answer
// entry: when the ranking does not surface it, it is appended with the raw
// (0, 0) matrix score so aggregation can arbitrate against it later. The
// result therefore has at most NBest+1 entries.
func (g *Generator) Generate(m *ScoreMatrix, pctx types.PassageContext) []types.Candidate {
	if m.SeqLen() == 0 {
		// Degenerate input still yields a usable no-answer entry.
		return []types.Candidate{{}}
	}

	top := make([]types.Candidate, 0, g.cfg.NBest+1)
	for _, flat := range m.sortedSpans() {
		if len(top) == g.cfg.NBest {
			break
		}
		start := flat / m.seqLen
		end := flat % m.seqLen
		if !validSpan(start, end, pctx, g.cfg.MaxAnswerLength) {
			continue
		}
		top = append(top, types.Candidate{StartT: start, EndT: end, Score: m.At(start, end)})
	}

	if !hasNoAnswer(top) {
		top = append(top, types.Candidate{Score: m.At(0, 0)})
	}
	return top
}

// validSpan applies the candidate filter. Indices are passage-local, i.e.
// they count special tokens, question tokens and passage tokens.
func validSpan(start, end int, pctx types.PassageContext, maxAnswerLength int) bool {
	// Spans must not reach into the special/question prefix. Token 0 is
	// exempt because it is reserved for the joint no-answer pair.
	if start < pctx.Seq2StartT && start != 0 {
		return false
	}
	if end < pctx.Seq2StartT && end != 0 {
		return false
	}
	// Spans must not point at padding.
	if start >= pctx.NNonPadding || end >= pctx.NNonPadding {
		return false
	}
	if end < start {
		return false
	}
	// 0 is only valid as the joint (0, 0) pair.
	if start == 0 && end != 0 {
		return false
	}
	if start != 0 && end == 0 {
		return false
	}
	if end-start+1 > maxAnswerLength {
		return false
	}
	return true
}

// hasNoAnswer reports whether the sentinel pair made it into the list.
func hasNoAnswer(cands []types.Candidate) bool {
	for _, c := range cands {
		if c.IsNoAnswer() {
			return true
		}
	}
	return false
}
