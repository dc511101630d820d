package estratto

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soundprediction/estratto/pkg/export"
	"github.com/soundprediction/estratto/pkg/head"
	"github.com/soundprediction/estratto/pkg/qa"
	"github.com/soundprediction/estratto/pkg/scorer"
	"github.com/soundprediction/estratto/pkg/store"
	"github.com/soundprediction/estratto/pkg/telemetry"
	"github.com/soundprediction/estratto/pkg/types"
)

// Service implements Extractor. The pipeline per basket is strictly
// forward: score matrices, per-passage candidates, reduced document
// candidates, answer strings. No stage mutates another's output.
type Service struct {
	scorer   scorer.Scorer
	head     *head.QA
	cache    *store.Store
	exporter *export.ParquetAnswerWriter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the badger answer cache.
func WithCache(s *store.Store) Option {
	return func(svc *Service) { svc.cache = s }
}

// WithExporter enables parquet export of every extraction.
func WithExporter(w *export.ParquetAnswerWriter) Option {
	return func(svc *Service) { svc.exporter = w }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// New creates the extraction service. cfg is fixed for the service's
// lifetime; maxConcurrency bounds parallel basket aggregation.
func New(sc scorer.Scorer, cfg types.QAConfig, maxConcurrency int, opts ...Option) (*Service, error) {
	if sc == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if cfg.NBest == 0 && cfg.MaxAnswerLength == 0 {
		cfg = types.DefaultQAConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid qa config: %w", err)
	}

	svc := &Service{
		scorer: sc,
		head:   head.NewQA(cfg, maxConcurrency),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Extract implements Extractor.
func (s *Service) Extract(ctx context.Context, questionID, question string, docs []types.Document) (map[string][]types.Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("at least one document is required")
	}
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("document %q: %w", d.ID, err)
		}
	}
	if questionID == "" {
		questionID = uuid.New().String()
	}
	ctx = telemetry.WithQuestionID(ctx, questionID)

	results := make(map[string][]types.Answer, len(docs))

	// Serve whole baskets from cache when possible.
	pending := docs
	if s.cache != nil {
		pending = pending[:0:0]
		for _, d := range docs {
			basketID := types.BasketID(d.ID, questionID)
			answers, ok, err := s.cache.Get(basketID)
			if err != nil {
				s.logger.WarnContext(ctx, "answer cache read failed", "basket_id", basketID, "error", err)
			}
			if ok {
				results[basketID] = answers
				continue
			}
			pending = append(pending, d)
		}
		if len(pending) == 0 {
			return results, nil
		}
	}

	scored, err := s.scorer.Score(ctx, question, pending)
	if err != nil {
		s.logger.ErrorContext(ctx, "scoring failed", "error", err)
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	baskets, offsets, texts, err := s.buildBaskets(pending, questionID, scored)
	if err != nil {
		return nil, err
	}

	reduced, err := s.head.DecodeBaskets(ctx, baskets)
	if err != nil {
		s.logger.ErrorContext(ctx, "aggregation failed", "error", err)
		return nil, err
	}

	for basketID, preds := range reduced {
		answers := qa.Stringify(preds, offsets[basketID], texts[basketID])
		results[basketID] = answers

		if s.cache != nil {
			if err := s.cache.Put(basketID, answers); err != nil {
				s.logger.WarnContext(ctx, "answer cache write failed", "basket_id", basketID, "error", err)
			}
		}
	}

	if s.exporter != nil {
		for _, d := range pending {
			basketID := types.BasketID(d.ID, questionID)
			if _, err := s.exporter.WriteAnswers(d.ID, questionID, results[basketID]); err != nil {
				s.logger.WarnContext(ctx, "answer export failed", "basket_id", basketID, "error", err)
			}
		}
	}

	return results, nil
}

// buildBaskets runs per-passage candidate generation and assembles the
// aggregation input for each scored document.
func (s *Service) buildBaskets(docs []types.Document, questionID string, scored []scorer.ScoredDocument) ([]qa.BasketCandidates, map[string][]int, map[string]string, error) {
	if len(scored) != len(docs) {
		return nil, nil, nil, fmt.Errorf("scorer returned %d documents for %d inputs", len(scored), len(docs))
	}

	baskets := make([]qa.BasketCandidates, 0, len(scored))
	offsets := make(map[string][]int, len(scored))
	texts := make(map[string]string, len(scored))

	for i, sd := range scored {
		if sd.DocumentID != docs[i].ID {
			return nil, nil, nil, fmt.Errorf("scorer returned document %q in position of %q", sd.DocumentID, docs[i].ID)
		}
		basketID := types.BasketID(sd.DocumentID, questionID)
		basket := qa.BasketCandidates{
			BasketID:   basketID,
			NDocTokens: len(sd.TokenOffsets),
			Stride:     sd.Stride,
			Passages:   make([]qa.PassageCandidates, 0, len(sd.Passages)),
		}
		for _, p := range sd.Passages {
			pctx := p.Context()
			cands, err := s.head.DecodePassage(p.StartLogits, p.EndLogits, pctx)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("document %s: %w", sd.DocumentID, err)
			}
			basket.Passages = append(basket.Passages, qa.PassageCandidates{
				Context:    pctx,
				Candidates: cands,
			})
		}
		baskets = append(baskets, basket)
		offsets[basketID] = sd.TokenOffsets
		texts[basketID] = docs[i].Text
	}
	return baskets, offsets, texts, nil
}

// FormatResults implements Extractor.
func (s *Service) FormatResults(results map[string][]types.Answer, docs []types.Document, questionID string) map[string]types.FormattedResult {
	out := make(map[string]types.FormattedResult, len(results))
	for _, d := range docs {
		basketID := types.BasketID(d.ID, questionID)
		answers, ok := results[basketID]
		if !ok {
			continue
		}
		out[basketID] = types.FormatAnswers(answers, d.Text)
	}
	return out
}

// Health implements Extractor.
func (s *Service) Health(ctx context.Context) error {
	return s.scorer.Health(ctx)
}

// Close implements Extractor.
func (s *Service) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
