// Package export writes document-level answers to parquet files for
// offline analysis.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/estratto/pkg/types"
)

// ParquetAnswer is the parquet row schema for one answer.
type ParquetAnswer struct {
	ID         string    `parquet:"id"`
	BasketID   string    `parquet:"basket_id"`
	DocumentID string    `parquet:"document_id"`
	QuestionID string    `parquet:"question_id"`
	Rank       int       `parquet:"rank"`
	Answer     string    `parquet:"answer"`
	StartT     int       `parquet:"start_t"`
	EndT       int       `parquet:"end_t"`
	Score      float64   `parquet:"score"`
	NoAnswer   bool      `parquet:"no_answer"`
	CreatedAt  time.Time `parquet:"created_at"`
}

// ParquetAnswerWriter writes ranked answers to timestamped parquet files
// under a base directory.
type ParquetAnswerWriter struct {
	baseDir string
}

// NewParquetAnswerWriter creates the writer and ensures the directory
// exists.
func NewParquetAnswerWriter(baseDir string) (*ParquetAnswerWriter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &ParquetAnswerWriter{baseDir: baseDir}, nil
}

// WriteAnswers writes one basket's ranked answers and returns the file
// path.
func (w *ParquetAnswerWriter) WriteAnswers(documentID, questionID string, answers []types.Answer) (string, error) {
	now := time.Now().UTC()
	basketID := types.BasketID(documentID, questionID)

	rows := make([]ParquetAnswer, 0, len(answers))
	for rank, a := range answers {
		rows = append(rows, ParquetAnswer{
			ID:         uuid.New().String(),
			BasketID:   basketID,
			DocumentID: documentID,
			QuestionID: questionID,
			Rank:       rank,
			Answer:     a.Text,
			StartT:     a.StartT,
			EndT:       a.EndT,
			Score:      a.Score,
			NoAnswer:   a.IsNoAnswer(),
			CreatedAt:  now,
		})
	}

	filename := fmt.Sprintf("answers_%s_%s.parquet", basketID, now.Format("20060102T150405.000000000"))
	path := filepath.Join(w.baseDir, filename)
	if err := parquet.WriteFile(path, rows); err != nil {
		return "", fmt.Errorf("failed to write answers parquet: %w", err)
	}
	return path, nil
}
