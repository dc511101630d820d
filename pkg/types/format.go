package types

// Prediction is one formatted answer in the shape expected by downstream
// presentation layers. The no-answer case carries the sentinel indices and
// an empty label.
type Prediction struct {
	Start       *int     `json:"start"`
	End         *int     `json:"end"`
	Context     string   `json:"context"`
	Label       string   `json:"label"`
	Probability *float64 `json:"probability"`
}

// FormattedResult is the serializable output for one basket.
type FormattedResult struct {
	Task        string       `json:"task"`
	Predictions []Prediction `json:"predictions"`
}

// contextMargin is the number of characters of surrounding document text
// included on each side of an answer in Prediction.Context.
const contextMargin = 100

// FormatAnswers converts stringified answers into the formatted result for
// one basket. Scores are raw logit sums, not probabilities, so Probability
// stays null.
func FormatAnswers(answers []Answer, clearText string) FormattedResult {
	preds := make([]Prediction, 0, len(answers))
	for _, a := range answers {
		start, end := a.StartT, a.EndT
		preds = append(preds, Prediction{
			Start:   &start,
			End:     &end,
			Context: answerContext(a, clearText),
			Label:   a.Text,
		})
	}
	return FormattedResult{Task: "qa", Predictions: preds}
}

// answerContext returns the document text surrounding the answer span.
// The sentinel has no location, so its context is empty.
func answerContext(a Answer, clearText string) string {
	if a.IsNoAnswer() {
		return ""
	}
	start := a.StartCh - contextMargin
	if start < 0 {
		start = 0
	}
	end := a.EndCh + contextMargin
	if end > len(clearText) {
		end = len(clearText)
	}
	if start > end {
		return ""
	}
	return clearText[start:end]
}
