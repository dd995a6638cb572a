package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion identifies the model file layout.
const FormatVersion = 1

// ErrInvalidModelFile is returned when a model file parses but is inconsistent.
var ErrInvalidModelFile = errors.New("invalid model file")

type modelFile struct {
	FormatVersion int            `json:"format_version"`
	ModelVersion  string         `json:"model_version"`
	TrainedAt     time.Time      `json:"trained_at"`
	Vectorizer    vectorizerFile `json:"vectorizer"`
	Classifier    classifierFile `json:"classifier"`
}

type vectorizerFile struct {
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`
	NGramMin   int       `json:"ngram_min"`
	NGramMax   int       `json:"ngram_max"`
}

type classifierFile struct {
	Classes        []string    `json:"classes"`
	ClassCount     []float64   `json:"class_count"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	Alpha          float64     `json:"alpha"`
}

// Save writes p to path, replacing any existing file atomically.
func Save(path string, p *Pipeline) error {
	data, err := json.Marshal(modelFile{
		FormatVersion: FormatVersion,
		ModelVersion:  p.Version,
		TrainedAt:     p.TrainedAt,
		Vectorizer: vectorizerFile{
			Vocabulary: p.Vectorizer.Terms,
			IDF:        p.Vectorizer.IDF,
			NGramMin:   p.Vectorizer.NGramMin,
			NGramMax:   p.Vectorizer.NGramMax,
		},
		Classifier: classifierFile{
			Classes:        p.Model.Classes,
			ClassCount:     p.Model.ClassCount,
			ClassLogPrior:  p.Model.ClassLogPrior,
			FeatureLogProb: p.Model.FeatureLogProb,
			Alpha:          p.Model.Alpha,
		},
	})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

// Load reads a pipeline written by Save.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var f modelFile
	if err = json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFile, err)
	}
	if err = f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFile, err)
	}

	vectorizer, err := NewVectorizer(f.Vectorizer.Vocabulary, f.Vectorizer.IDF, f.Vectorizer.NGramMin, f.Vectorizer.NGramMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFile, err)
	}

	return &Pipeline{
		Vectorizer: vectorizer,
		Model: &NaiveBayes{
			Classes:        f.Classifier.Classes,
			ClassCount:     f.Classifier.ClassCount,
			ClassLogPrior:  f.Classifier.ClassLogPrior,
			FeatureLogProb: f.Classifier.FeatureLogProb,
			Alpha:          f.Classifier.Alpha,
		},
		Version:   f.ModelVersion,
		TrainedAt: f.TrainedAt,
	}, nil
}

func (f *modelFile) validate() error {
	if f.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format version %d", f.FormatVersion)
	}
	nFeatures := len(f.Vectorizer.Vocabulary)
	if nFeatures == 0 || len(f.Vectorizer.IDF) != nFeatures {
		return errors.New("vocabulary and idf must be non-empty and the same length")
	}
	c := f.Classifier
	nClasses := len(c.Classes)
	if nClasses == 0 || len(c.ClassLogPrior) != nClasses || len(c.FeatureLogProb) != nClasses {
		return errors.New("classifier arrays do not match the class count")
	}
	for i, row := range c.FeatureLogProb {
		if len(row) != nFeatures {
			return fmt.Errorf("feature_log_prob row %d has %d columns, want %d", i, len(row), nFeatures)
		}
	}
	return nil
}
