package dto

import "errors"

// Validation errors
var (
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrEmptyDocuments    = errors.New("documents cannot be empty")
	ErrQuestionTooLong   = errors.New("question exceeds maximum length (4096)")
	ErrDocumentTooLong   = errors.New("document text exceeds maximum length (1MB)")
	ErrTooManyDocuments  = errors.New("documents count exceeds maximum (100)")
	ErrEmptyDocumentID   = errors.New("document id cannot be empty")
	ErrEmptyDocumentText = errors.New("document text cannot be empty")
)

// Maximum field sizes accepted by the API
const (
	MaxQuestionLength = 4096
	MaxDocumentLength = 1024 * 1024 // 1MB
	MaxDocumentCount  = 100
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
