package types

import (
	"errors"
	"fmt"
)

// Validation and contract errors
var (
	ErrMissingNoAnswer  = errors.New("passage candidates are missing their no-answer entry")
	ErrIncompleteBasket = errors.New("basket passages do not cover the document")
	ErrEmptyBasket      = errors.New("basket has no passages")
	ErrEmptyDocumentID  = errors.New("document id cannot be empty")
	ErrEmptyDocument    = errors.New("document text cannot be empty")
	ErrLogitLenMismatch = errors.New("start and end logit vectors differ in length")
	ErrInvalidNBest     = errors.New("n_best must be positive")
	ErrInvalidMaxAnswer = errors.New("max answer length must be positive")
)

// NoAnswerT is the document-level sentinel index. A (-1, -1) span means
// "no answer in this document". On the passage level the sentinel is (0, 0)
// because token 0 is the leading special token of the model input.
const NoAnswerT = -1

// QAConfig carries the ranking parameters for candidate generation and
// aggregation. It is a value object fixed at pipeline construction; nothing
// mutates it after that.
type QAConfig struct {
	// NBest caps the number of candidates retained at each ranking stage.
	NBest int `json:"n_best" mapstructure:"n_best"`
	// MaxAnswerLength rejects spans longer than this many tokens.
	MaxAnswerLength int `json:"max_answer_length" mapstructure:"max_answer_length"`
}

// DefaultQAConfig returns the ranking parameters used when none are configured.
func DefaultQAConfig() QAConfig {
	return QAConfig{NBest: 5, MaxAnswerLength: 30}
}

// Validate checks the config is usable.
func (c QAConfig) Validate() error {
	if c.NBest <= 0 {
		return ErrInvalidNBest
	}
	if c.MaxAnswerLength <= 0 {
		return ErrInvalidMaxAnswer
	}
	return nil
}

// Candidate is a scored answer span in passage-local token space.
// (0, 0) is the reserved no-answer sentinel.
type Candidate struct {
	StartT int     `json:"start_t"`
	EndT   int     `json:"end_t"`
	Score  float64 `json:"score"`
}

// IsNoAnswer reports whether the candidate is the passage-level sentinel.
func (c Candidate) IsNoAnswer() bool {
	return c.StartT == 0 && c.EndT == 0
}

// DocCandidate is a scored answer span in document token space.
// (-1, -1) is the no-answer sentinel.
type DocCandidate struct {
	StartT int     `json:"start_t"`
	EndT   int     `json:"end_t"`
	Score  float64 `json:"score"`
}

// IsNoAnswer reports whether the candidate is the document-level sentinel.
func (c DocCandidate) IsNoAnswer() bool {
	return c.StartT == NoAnswerT && c.EndT == NoAnswerT
}

// Span is a gold label token range in document space, end inclusive,
// used on the evaluation path.
type Span struct {
	StartT int `json:"start_t"`
	EndT   int `json:"end_t"`
}

// IsNoAnswer reports whether the label span is the document-level sentinel.
func (s Span) IsNoAnswer() bool {
	return s.StartT == NoAnswerT && s.EndT == NoAnswerT
}

// PassageContext is the per-passage metadata needed to validate candidate
// spans and remap them into document token space.
type PassageContext struct {
	// PassageStartT is the document token offset where the passage begins,
	// normally a multiple of the stride.
	PassageStartT int `json:"passage_start_t"`
	// Seq2StartT counts the special and question tokens that precede the
	// passage tokens in the model input sequence.
	Seq2StartT int `json:"seq_2_start_t"`
	// NNonPadding counts the real tokens in the input sequence.
	NNonPadding int `json:"n_non_padding"`
}

// DocOffset is the shift applied to passage-local token indices to obtain
// document token indices.
func (p PassageContext) DocOffset() int {
	return p.PassageStartT - p.Seq2StartT
}

// NonPaddingCount derives NNonPadding from a padding mask where 1 marks a
// real token.
func NonPaddingCount(mask []int) int {
	n := 0
	for _, v := range mask {
		if v != 0 {
			n++
		}
	}
	return n
}

// Document is a raw input document.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Validate checks the document is usable as pipeline input.
func (d Document) Validate() error {
	if d.ID == "" {
		return ErrEmptyDocumentID
	}
	if d.Text == "" {
		return ErrEmptyDocument
	}
	return nil
}

// BasketID builds the aggregation key for one (document, question) pair.
func BasketID(documentID, questionID string) string {
	return fmt.Sprintf("%s-%s", documentID, questionID)
}

// Answer is a stringified document-level prediction. The sentinel span
// stringifies to the empty Text. StartCh and EndCh are the character
// offsets of the span inside the document text before trimming; they are
// zero for the sentinel.
type Answer struct {
	Text    string  `json:"text"`
	StartT  int     `json:"start_t"`
	EndT    int     `json:"end_t"`
	StartCh int     `json:"start_ch"`
	EndCh   int     `json:"end_ch"`
	Score   float64 `json:"score"`
}

// IsNoAnswer reports whether the answer carries the sentinel span.
func (a Answer) IsNoAnswer() bool {
	return a.StartT == NoAnswerT && a.EndT == NoAnswerT
}
