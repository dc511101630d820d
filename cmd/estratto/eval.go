package estratto

import (
	"fmt"
	"os"

	"github.com/soundprediction/estratto/pkg/config"
	"github.com/soundprediction/estratto/pkg/qa"
	"github.com/soundprediction/estratto/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate extraction quality against a labeled dataset",
	Long: `Evaluate extraction quality against a YAML dataset of questions,
documents and gold answer spans.

Gold spans are given per passage in sample token indices and are remapped
to document space before comparison, the same way the model's labels are
prepared during training. A prediction counts as an exact match when its
top answer's document token span is one of the gold spans; a gold entry
with only no-answer passages expects the no-answer prediction.`,
	RunE: runEval,
}

var (
	evalDataset string
)

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "", "Path to the YAML evaluation dataset (required)")
	evalCmd.MarkFlagRequired("dataset")
}

// evalFile is the YAML dataset layout.
type evalFile struct {
	Items []evalItem `yaml:"items"`
}

type evalItem struct {
	Question   string         `yaml:"question"`
	QuestionID string         `yaml:"question_id"`
	Documents  []evalDocument `yaml:"documents"`
	Gold       []evalGold     `yaml:"gold"`
}

type evalDocument struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type evalGold struct {
	DocumentID string        `yaml:"document_id"`
	Passages   []evalPassage `yaml:"passages"`
}

type evalPassage struct {
	PassageStartT int        `yaml:"passage_start_t"`
	Seq2StartT    int        `yaml:"seq_2_start_t"`
	Spans         []evalSpan `yaml:"spans"`
}

type evalSpan struct {
	StartT int `yaml:"start_t"`
	EndT   int `yaml:"end_t"`
}

func runEval(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(evalDataset)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}

	var dataset evalFile
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(dataset.Items) == 0 {
		return fmt.Errorf("dataset contains no items")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc, _, err := initializeService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Estratto: %w", err)
	}
	defer svc.Close()

	var total, matched int
	for i, item := range dataset.Items {
		questionID := item.QuestionID
		if questionID == "" {
			questionID = fmt.Sprintf("eval-%d", i)
		}

		docs := make([]types.Document, len(item.Documents))
		for j, d := range item.Documents {
			docs[j] = types.Document{ID: d.ID, Text: d.Text}
		}

		results, err := svc.Extract(cmd.Context(), questionID, item.Question, docs)
		if err != nil {
			return fmt.Errorf("item %d: extraction failed: %w", i, err)
		}

		for _, gold := range item.Gold {
			total++
			basketID := types.BasketID(gold.DocumentID, questionID)
			answers := results[basketID]
			if len(answers) == 0 {
				continue
			}
			if spanMatches(goldSpans(gold), answers[0]) {
				matched++
			}
		}
	}

	fmt.Printf("Exact match: %d/%d (%.1f%%)\n", matched, total, 100*float64(matched)/float64(total))
	return nil
}

// goldSpans remaps per-passage gold labels to document space and merges
// them across passages.
func goldSpans(gold evalGold) []types.Span {
	perPassage := make([][]types.Span, 0, len(gold.Passages))
	for _, p := range gold.Passages {
		labels := make([]types.Span, 0, len(p.Spans))
		for _, s := range p.Spans {
			labels = append(labels, types.Span{StartT: s.StartT, EndT: s.EndT})
		}
		pctx := types.PassageContext{
			PassageStartT: p.PassageStartT,
			Seq2StartT:    p.Seq2StartT,
		}
		perPassage = append(perPassage, qa.ToDocLabels(labels, pctx))
	}
	return qa.ReduceLabels(perPassage)
}

func spanMatches(gold []types.Span, answer types.Answer) bool {
	for _, g := range gold {
		if answer.StartT == g.StartT && answer.EndT == g.EndT {
			return true
		}
	}
	return false
}
