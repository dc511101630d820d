package dto

import (
	"fmt"
	"strings"

	"github.com/soundprediction/estratto/pkg/types"
)

// DocumentPayload is one document submitted for extraction.
type DocumentPayload struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// Validate performs validation on DocumentPayload
func (d *DocumentPayload) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyDocumentID
	}
	if strings.TrimSpace(d.Text) == "" {
		return ErrEmptyDocumentText
	}
	if len(d.Text) > MaxDocumentLength {
		return ErrDocumentTooLong
	}
	return nil
}

// ExtractRequest represents a request to extract answer spans from documents
type ExtractRequest struct {
	QuestionID string            `json:"question_id,omitempty"`
	Question   string            `json:"question" binding:"required"`
	Documents  []DocumentPayload `json:"documents" binding:"required,dive"`
	Formatted  bool              `json:"formatted,omitempty"`
}

// Validate performs validation on ExtractRequest
func (r *ExtractRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	if len(r.Documents) == 0 {
		return ErrEmptyDocuments
	}
	if len(r.Documents) > MaxDocumentCount {
		return ErrTooManyDocuments
	}
	for i, d := range r.Documents {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// ToDocuments converts the request payload to domain documents.
func (r *ExtractRequest) ToDocuments() []types.Document {
	docs := make([]types.Document, len(r.Documents))
	for i, d := range r.Documents {
		docs[i] = types.Document{ID: d.ID, Text: d.Text}
	}
	return docs
}

// ExtractResponse represents the answers per basket
type ExtractResponse struct {
	QuestionID string                           `json:"question_id"`
	Answers    map[string][]types.Answer        `json:"answers,omitempty"`
	Formatted  map[string]types.FormattedResult `json:"formatted,omitempty"`
}

// AnswersResponse is a single basket's cached answers.
type AnswersResponse struct {
	BasketID string         `json:"basket_id"`
	Answers  []types.Answer `json:"answers"`
}
