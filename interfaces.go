package estratto

import (
	"context"

	"github.com/soundprediction/estratto/pkg/types"
)

// Extractor is the main interface for answering questions over documents.
type Extractor interface {
	// Extract answers one question over a set of documents. The result is
	// keyed by basket id ("{documentID}-{questionID}") and each list is
	// ranked, at most NBest long, with the no-answer sentinel represented
	// as an Answer with empty Text and (-1, -1) token indices.
	Extract(ctx context.Context, questionID, question string, docs []types.Document) (map[string][]types.Answer, error)

	// FormatResults converts extraction output into the serializable
	// per-basket shape consumed by presentation layers.
	FormatResults(results map[string][]types.Answer, docs []types.Document, questionID string) map[string]types.FormattedResult

	// Health reports whether the scoring backend is reachable.
	Health(ctx context.Context) error

	// Close releases the answer cache and any other held resources.
	Close() error
}
