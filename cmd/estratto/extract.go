package estratto

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundprediction/estratto/pkg/config"
	"github.com/soundprediction/estratto/pkg/rustbert"
	"github.com/soundprediction/estratto/pkg/types"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [document files...]",
	Short: "Extract answers for a question from document files",
	Long: `Run a one-shot extraction over the given document files and print the
ranked answers as JSON.

Each file becomes one document; the file name (without extension) is the
document ID. With --backend rustbert the question is answered by the
in-process model instead of the remote scorer pipeline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

var (
	extractQuestion   string
	extractQuestionID string
	extractFormatted  bool
	extractBackend    string
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractQuestion, "question", "q", "", "Question to answer (required)")
	extractCmd.Flags().StringVar(&extractQuestionID, "question-id", "", "Question ID (generated when empty)")
	extractCmd.Flags().BoolVar(&extractFormatted, "formatted", false, "Print formatted results with context windows")
	extractCmd.Flags().StringVar(&extractBackend, "backend", "scorer", "Extraction backend (scorer, rustbert)")
	extractCmd.MarkFlagRequired("question")
}

func runExtract(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch extractBackend {
	case "rustbert":
		return runRustBertExtract(cmd.Context(), docs)
	case "scorer":
		return runScorerExtract(cmd.Context(), cfg, docs)
	default:
		return fmt.Errorf("unsupported backend: %s", extractBackend)
	}
}

func runScorerExtract(ctx context.Context, cfg *config.Config, docs []types.Document) error {
	svc, _, err := initializeService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Estratto: %w", err)
	}
	defer svc.Close()

	results, err := svc.Extract(ctx, extractQuestionID, extractQuestion, docs)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractFormatted {
		formatted := svc.FormatResults(results, docs, extractQuestionID)
		return printJSON(formatted)
	}
	return printJSON(results)
}

func runRustBertExtract(ctx context.Context, docs []types.Document) error {
	client := rustbert.NewClient()
	if err := client.Load(); err != nil {
		return fmt.Errorf("failed to load QA model: %w", err)
	}
	defer client.Close()

	results := make(map[string][]rustbert.Answer, len(docs))
	for _, d := range docs {
		answers, err := client.Answer(ctx, extractQuestion, d.Text)
		if err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
		results[d.ID] = answers
	}
	return printJSON(results)
}

func readDocuments(paths []string) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", p, err)
		}
		name := filepath.Base(p)
		id := strings.TrimSuffix(name, filepath.Ext(name))
		docs = append(docs, types.Document{ID: id, Text: string(data)})
	}
	return docs, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
