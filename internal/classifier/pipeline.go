// Package classifier implements the complaint priority model: a TF-IDF
// vectorizer feeding a multinomial Naive Bayes classifier, plus training,
// evaluation and persistence.
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/dataset"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
)

// Pipeline is a fitted vectorizer and classifier pair.
type Pipeline struct {
	Vectorizer *Vectorizer
	Model      *NaiveBayes
	Version    string
	TrainedAt  time.Time
}

// Classes returns a copy of the sorted label set.
func (p *Pipeline) Classes() []string {
	return append([]string(nil), p.Model.Classes...)
}

// PredictProba returns per-class probabilities in Classes order.
func (p *Pipeline) PredictProba(text string) []float64 {
	return p.Model.PredictProba(p.Vectorizer.Transform(text))
}

// Predict returns the most likely label for text.
func (p *Pipeline) Predict(text string) string {
	return p.Model.Predict(p.Vectorizer.Transform(text))
}

// Classify returns the label, its probability and the full score map.
func (p *Pipeline) Classify(text string) domain.Prediction {
	proba := p.PredictProba(text)
	best := argmax(proba)

	scores := make(map[string]float64, len(proba))
	for i, c := range p.Model.Classes {
		scores[c] = proba[i]
	}

	return domain.Prediction{
		Priority:     p.Model.Classes[best],
		Confidence:   proba[best],
		AllScores:    scores,
		ModelVersion: p.Version,
	}
}

// TrainingConfig holds the split and model hyperparameters.
type TrainingConfig struct {
	TestSize    float64 `yaml:"test_size"`
	Seed        int64   `yaml:"-"`
	MaxFeatures int     `yaml:"max_features"`
	MinDF       int     `yaml:"min_df"`
	NGramMin    int     `yaml:"ngram_min"`
	NGramMax    int     `yaml:"ngram_max"`
	Alpha       float64 `yaml:"alpha"`
}

// DefaultTrainingConfig returns the production hyperparameters.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TestSize:    0.2,
		Seed:        42,
		MaxFeatures: 5000,
		MinDF:       2,
		NGramMin:    1,
		NGramMax:    2,
		Alpha:       0.1,
	}
}

// Train splits ds, fits the pipeline on the training side and evaluates it
// on the held-out side. ctx is checked between stages.
func Train(ctx context.Context, ds *dataset.Dataset, cfg TrainingConfig, version string) (*Pipeline, *Report, error) {
	texts, labels := ds.Texts(), ds.Labels()

	split, err := dataset.StratifiedSplit(labels, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	trainDocs, trainLabels := pick(texts, split.Train), pick(labels, split.Train)
	vectorizer, matrix, err := FitVectorizer(trainDocs, VectorizerConfig{
		MaxFeatures: cfg.MaxFeatures,
		MinDF:       cfg.MinDF,
		NGramMin:    cfg.NGramMin,
		NGramMax:    cfg.NGramMax,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return nil, nil, err
	}

	nb, err := FitNaiveBayes(matrix, trainLabels, vectorizer.NumFeatures(), cfg.Alpha)
	if err != nil {
		return nil, nil, fmt.Errorf("fit naive bayes: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return nil, nil, err
	}

	pipeline := &Pipeline{
		Vectorizer: vectorizer,
		Model:      nb,
		Version:    version,
		TrainedAt:  time.Now().UTC(),
	}

	testLabels := pick(labels, split.Test)
	predicted := make([]string, len(split.Test))
	for i, idx := range split.Test {
		predicted[i] = pipeline.Predict(texts[idx])
	}

	report := Evaluate(testLabels, predicted)
	report.TrainSize = len(split.Train)
	report.NumFeatures = vectorizer.NumFeatures()
	return pipeline, report, nil
}

func pick(values []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
