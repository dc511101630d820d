// Package scorer talks to the external scoring model: the service that
// tokenizes documents, splits them into strided passages, runs the model,
// and returns per-token start/end scores plus the remapping metadata.
package scorer

import (
	"context"

	"github.com/soundprediction/estratto/pkg/types"
)

// ScoredPassage is one passage's model output plus the metadata needed to
// validate and remap its spans.
type ScoredPassage struct {
	StartLogits   []float32 `json:"start_logits"`
	EndLogits     []float32 `json:"end_logits"`
	PassageStartT int       `json:"passage_start_t"`
	Seq2StartT    int       `json:"seq_2_start_t"`
	PaddingMask   []int     `json:"padding_mask"`
}

// Context derives the PassageContext for span validation and remapping.
func (p ScoredPassage) Context() types.PassageContext {
	return types.PassageContext{
		PassageStartT: p.PassageStartT,
		Seq2StartT:    p.Seq2StartT,
		NNonPadding:   types.NonPaddingCount(p.PaddingMask),
	}
}

// ScoredDocument groups the scored passages of one document together with
// the token offset table the stringifier needs.
type ScoredDocument struct {
	DocumentID   string          `json:"document_id"`
	TokenOffsets []int           `json:"token_offsets"`
	Stride       int             `json:"stride"`
	Passages     []ScoredPassage `json:"passages"`
}

// Scorer produces token-level start/end scores for a question over a set of
// documents. Implementations must return one ScoredDocument per input
// document, each carrying every passage of that document.
type Scorer interface {
	Score(ctx context.Context, question string, docs []types.Document) ([]ScoredDocument, error)
	Health(ctx context.Context) error
}
