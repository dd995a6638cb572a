package classifier

import (
	"fmt"
	"sort"
	"strings"
)

// ClassMetrics are the per-label scores of a classification report.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes evaluation on the held-out split.
type Report struct {
	Accuracy    float64        `json:"accuracy"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	TrainSize   int            `json:"train_size"`
	TestSize    int            `json:"test_size"`
	NumFeatures int            `json:"num_features"`
}

// Evaluate scores predicted against truth. Labels seen on either side are
// reported; precision or recall with a zero denominator is 0.
func Evaluate(truth, predicted []string) *Report {
	labelSet := make(map[string]struct{})
	for _, l := range truth {
		labelSet[l] = struct{}{}
	}
	for _, l := range predicted {
		labelSet[l] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	tp := make(map[string]int)
	predCount := make(map[string]int)
	support := make(map[string]int)
	correct := 0
	for i := range truth {
		support[truth[i]]++
		predCount[predicted[i]]++
		if truth[i] == predicted[i] {
			tp[truth[i]]++
			correct++
		}
	}

	report := &Report{TestSize: len(truth), MacroAvg: ClassMetrics{Label: "macro avg"}, WeightedAvg: ClassMetrics{Label: "weighted avg"}}
	if len(truth) > 0 {
		report.Accuracy = float64(correct) / float64(len(truth))
	}

	for _, l := range labels {
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(tp[l], predCount[l]),
			Recall:    ratio(tp[l], support[l]),
			Support:   support[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Classes = append(report.Classes, m)

		report.MacroAvg.Precision += m.Precision
		report.MacroAvg.Recall += m.Recall
		report.MacroAvg.F1 += m.F1

		w := float64(m.Support)
		report.WeightedAvg.Precision += w * m.Precision
		report.WeightedAvg.Recall += w * m.Recall
		report.WeightedAvg.F1 += w * m.F1
	}

	if n := float64(len(labels)); n > 0 {
		report.MacroAvg.Precision /= n
		report.MacroAvg.Recall /= n
		report.MacroAvg.F1 /= n
	}
	if total := float64(len(truth)); total > 0 {
		report.WeightedAvg.Precision /= total
		report.WeightedAvg.Recall /= total
		report.WeightedAvg.F1 /= total
	}
	report.MacroAvg.Support = len(truth)
	report.WeightedAvg.Support = len(truth)

	return report
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a fixed-width table.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		width = max(width, len(c.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.TestSize)
	for _, c := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	return b.String()
}
