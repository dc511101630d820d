// Package head defines the closed set of task heads. There is no string
// keyed registry and no subclass auto-registration: each head kind is a
// tagged variant behind one fixed interface, and the constructor rejects
// kinds that are not built into this module.
package head

import (
	"context"
	"fmt"

	"github.com/soundprediction/estratto/pkg/qa"
	"github.com/soundprediction/estratto/pkg/types"
)

// Kind tags a task head variant.
type Kind string

const (
	KindQuestionAnswering   Kind = "question_answering"
	KindTextClassification  Kind = "text_classification"
	KindTokenClassification Kind = "token_classification"
	KindRegression          Kind = "regression"
)

// Head is the fixed surface shared by all task heads: decode turns model
// scores into task predictions. Training-time methods (encode, loss) live
// with the training stack, not in this inference module.
type Head interface {
	Kind() Kind
}

// New builds the head for a kind. Only question answering ships in this
// module; the other kinds are recognized tags without an implementation
// here.
func New(kind Kind, cfg types.QAConfig, maxConcurrency int) (Head, error) {
	switch kind {
	case KindQuestionAnswering:
		return NewQA(cfg, maxConcurrency), nil
	case KindTextClassification, KindTokenClassification, KindRegression:
		return nil, fmt.Errorf("head kind %q is not built into this module", kind)
	default:
		return nil, fmt.Errorf("unknown head kind %q", kind)
	}
}

// QA is the question answering head: span candidate generation per passage
// plus cross-passage aggregation.
type QA struct {
	cfg types.QAConfig
	gen *qa.Generator
	agg *qa.Aggregator
}

// NewQA creates the QA head with an immutable ranking configuration.
func NewQA(cfg types.QAConfig, maxConcurrency int) *QA {
	return &QA{
		cfg: cfg,
		gen: qa.NewGenerator(cfg),
		agg: qa.NewAggregator(cfg, maxConcurrency),
	}
}

// Kind implements Head.
func (h *QA) Kind() Kind {
	return KindQuestionAnswering
}

// Config returns the ranking parameters the head was built with.
func (h *QA) Config() types.QAConfig {
	return h.cfg
}

// DecodePassage turns one passage's start/end logits into ranked candidate
// spans, no-answer entry included.
func (h *QA) DecodePassage(startLogits, endLogits []float32, pctx types.PassageContext) ([]types.Candidate, error) {
	m, err := qa.NewScoreMatrix(startLogits, endLogits)
	if err != nil {
		return nil, err
	}
	return h.gen.Generate(m, pctx), nil
}

// DecodeBaskets aggregates per-passage candidates into ranked document
// level spans per basket.
func (h *QA) DecodeBaskets(ctx context.Context, baskets []qa.BasketCandidates) (map[string][]types.DocCandidate, error) {
	return h.agg.Aggregate(ctx, baskets)
}
