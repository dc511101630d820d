package qa

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/estratto/pkg/types"
	"github.com/soundprediction/estratto/pkg/utils"
)

// PassageCandidates pairs one passage's generated candidates with the
// context needed to remap them into document token space.
type PassageCandidates struct {
	Context    types.PassageContext
	Candidates []types.Candidate
}

// BasketCandidates collects everything the aggregator needs for one
// (document, question) pair. Every passage of the pair must be present:
// the aggregator verifies stride coverage instead of silently reducing a
// partial set.
type BasketCandidates struct {
	BasketID string
	// NDocTokens is the length of the document's token offset table.
	NDocTokens int
	// Stride is the token offset between consecutive passage starts.
	Stride   int
	Passages []PassageCandidates
}

// Aggregator reduces per-passage candidates into ranked document-level
// answers. Baskets are independent, so they are processed in parallel.
type Aggregator struct {
	cfg  types.QAConfig
	exec *utils.ConcurrentExecutor
}

// NewAggregator creates an aggregator. maxConcurrency bounds how many
// baskets reduce at once; zero or negative picks a CPU-derived default.
func NewAggregator(cfg types.QAConfig, maxConcurrency int) *Aggregator {
	if cfg.NBest <= 0 {
		cfg.NBest = types.DefaultQAConfig().NBest
	}
	return &Aggregator{
		cfg:  cfg,
		exec: utils.NewConcurrentExecutor(maxConcurrency),
	}
}

// ToDocCandidates converts passage-local candidates to document token space.
// A passage-local index of exactly 0 collapses to the -1 sentinel; start and
// end collapse independently. Only the joint (0, 0) pair ever reaches this
// point with a zero coordinate (the generator's filter rejects half-sentinel
// pairs), but the remap is defined coordinate-wise on purpose: a genuine
// answer at absolute document token 0 is indistinguishable from no-answer,
// an ambiguity inherited from the scoring contract.
func ToDocCandidates(cands []types.Candidate, pctx types.PassageContext) []types.DocCandidate {
	offset := pctx.DocOffset()
	out := make([]types.DocCandidate, 0, len(cands))
	for _, c := range cands {
		d := types.DocCandidate{Score: c.Score}
		if c.StartT == 0 {
			d.StartT = types.NoAnswerT
		} else {
			d.StartT = c.StartT + offset
		}
		if c.EndT == 0 {
			d.EndT = types.NoAnswerT
		} else {
			d.EndT = c.EndT + offset
		}
		out = append(out, d)
	}
	return out
}

// Aggregate reduces each basket to its ranked document-level candidates.
// The returned map is keyed by basket id; every list has at most NBest
// entries. Contract violations (empty basket, incomplete coverage, missing
// no-answer entry) abort the whole call.
func (a *Aggregator) Aggregate(ctx context.Context, baskets []BasketCandidates) (map[string][]types.DocCandidate, error) {
	results := make([]([]types.DocCandidate), len(baskets))

	fns := make([]func() error, len(baskets))
	for i := range baskets {
		i := i
		fns[i] = func() error {
			reduced, err := a.aggregateBasket(baskets[i])
			if err != nil {
				return fmt.Errorf("basket %s: %w", baskets[i].BasketID, err)
			}
			results[i] = reduced
			return nil
		}
	}

	for _, err := range a.exec.Execute(ctx, fns...) {
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]types.DocCandidate, len(baskets))
	for i, b := range baskets {
		out[b.BasketID] = results[i]
	}
	return out, nil
}

// aggregateBasket remaps and reduces the passages of a single basket.
func (a *Aggregator) aggregateBasket(basket BasketCandidates) ([]types.DocCandidate, error) {
	if err := validateCoverage(basket); err != nil {
		return nil, err
	}
	perPassage := make([][]types.DocCandidate, len(basket.Passages))
	for i, p := range basket.Passages {
		perPassage[i] = ToDocCandidates(p.Candidates, p.Context)
	}
	return a.reduce(perPassage)
}

// reduce is the decisive ranking step. Non-sentinel candidates from all
// passages are pooled, ranked by score, and cut to NBest. Each survivor is
// then arbitrated against the no-answer score of its own originating
// passage; losers are replaced by that passage's sentinel entry. Identical
// sentinel entries are deliberately not deduplicated, so the list length is
// stable for downstream consumers.
func (a *Aggregator) reduce(perPassage [][]types.DocCandidate) ([]types.DocCandidate, error) {
	type tagged struct {
		cand    types.DocCandidate
		passage int
	}

	var pool []tagged
	for pi, cands := range perPassage {
		for _, c := range cands {
			if !c.IsNoAnswer() {
				pool = append(pool, tagged{cand: c, passage: pi})
			}
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].cand.Score > pool[j].cand.Score
	})
	if len(pool) > a.cfg.NBest {
		pool = pool[:a.cfg.NBest]
	}

	out := make([]types.DocCandidate, 0, len(pool))
	for _, t := range pool {
		noAnswer, err := noAnswerScore(perPassage[t.passage])
		if err != nil {
			return nil, err
		}
		if t.cand.Score > noAnswer {
			out = append(out, t.cand)
		} else {
			out = append(out, types.DocCandidate{
				StartT: types.NoAnswerT,
				EndT:   types.NoAnswerT,
				Score:  noAnswer,
			})
		}
	}
	return out, nil
}

// noAnswerScore returns the sentinel score carried by a passage's candidate
// list. A list without one violates the generator contract; that is a
// programming error and must propagate, never be recovered.
func noAnswerScore(cands []types.DocCandidate) (float64, error) {
	for _, c := range cands {
		if c.IsNoAnswer() {
			return c.Score, nil
		}
	}
	return 0, types.ErrMissingNoAnswer
}

// validateCoverage rejects baskets whose passages cannot cover the whole
// document: missing leading window, a gap in the stride sequence, or a last
// window that stops short of the final document token.
func validateCoverage(basket BasketCandidates) error {
	if len(basket.Passages) == 0 {
		return types.ErrEmptyBasket
	}
	// Without document geometry there is nothing to check against; a
	// single passage is then trusted to be the whole document.
	if basket.NDocTokens <= 0 {
		return nil
	}

	sorted := make([]PassageCandidates, len(basket.Passages))
	copy(sorted, basket.Passages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Context.PassageStartT < sorted[j].Context.PassageStartT
	})

	if sorted[0].Context.PassageStartT != 0 {
		return fmt.Errorf("%w: first passage starts at token %d", types.ErrIncompleteBasket, sorted[0].Context.PassageStartT)
	}
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Context.PassageStartT - sorted[i-1].Context.PassageStartT
		if basket.Stride <= 0 || gap != basket.Stride {
			return fmt.Errorf("%w: passage starts %d and %d are not one stride apart", types.ErrIncompleteBasket,
				sorted[i-1].Context.PassageStartT, sorted[i].Context.PassageStartT)
		}
	}

	last := sorted[len(sorted)-1].Context
	covered := last.PassageStartT + (last.NNonPadding - last.Seq2StartT)
	if covered < basket.NDocTokens {
		return fmt.Errorf("%w: passages cover %d of %d document tokens", types.ErrIncompleteBasket, covered, basket.NDocTokens)
	}
	return nil
}
