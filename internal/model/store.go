// Package model owns the active prediction pipeline: loading it at startup,
// retraining it on demand or on a schedule, and serving it to readers.
package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/classifier"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/dataset"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Source tells how the active model was obtained.
type Source string

const (
	SourceFile    Source = "file"
	SourceTrained Source = "trained"
)

// Config locates the model and dataset files.
type Config struct {
	ModelPath string
	DataPath  string
	Version   string
	Training  classifier.TrainingConfig
}

// Result describes a model that has just become active.
type Result struct {
	Pipeline *classifier.Pipeline
	Report   *classifier.Report // nil when loaded from file
	Source   Source
	Duration time.Duration
}

// Store holds the active pipeline. Readers never block; retrains are
// serialized and swap the pointer only after the new model is saved.
type Store struct {
	cfg       Config
	log       logger.Logger
	telemetry *telemetry.Provider

	current atomic.Pointer[classifier.Pipeline]
	trainMu sync.Mutex
}

// NewStore creates an empty store.
func NewStore(cfg Config, log logger.Logger, tp *telemetry.Provider) *Store {
	return &Store{cfg: cfg, log: log, telemetry: tp}
}

// Current returns the active pipeline or nil before the first load.
func (s *Store) Current() *classifier.Pipeline {
	return s.current.Load()
}

// Loaded reports whether a pipeline is active.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// DataPath returns the dataset location used for training and stats.
func (s *Store) DataPath() string {
	return s.cfg.DataPath
}

// LoadOrTrain loads the model file if it exists, otherwise trains and saves
// a new model. A model file that exists but cannot be read is an error.
func (s *Store) LoadOrTrain(ctx context.Context) (*Result, error) {
	start := time.Now()
	p, err := classifier.Load(s.cfg.ModelPath)
	switch {
	case err == nil:
		s.activate(p)
		s.log.Info("Model loaded from file",
			logger.String("path", s.cfg.ModelPath),
			logger.ModelVersion(p.Version),
			logger.Time("trained_at", p.TrainedAt),
			logger.Int("features", p.Vectorizer.NumFeatures()),
		)
		return &Result{Pipeline: p, Source: SourceFile, Duration: time.Since(start)}, nil
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("No saved model found, training a new one", logger.String("path", s.cfg.ModelPath))
		return s.Retrain(ctx)
	default:
		return nil, fmt.Errorf("load model %s: %w", s.cfg.ModelPath, err)
	}
}

// Retrain runs the training pipeline on the dataset, saves the result and
// makes it active. On failure the previous model stays active.
func (s *Store) Retrain(ctx context.Context) (*Result, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	ctx, span := s.telemetry.StartSpan(ctx, "model.retrain", attribute.String("data_path", s.cfg.DataPath))
	defer span.End()

	start := time.Now()
	p, report, err := s.train(ctx)
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.telemetry.RecordTraining(ctx, false, duration, 0, 0)
		s.log.Error("Model training failed", logger.Error(err), logger.Duration("duration", duration))
		return nil, domain.NewTrainingError(err)
	}

	s.activate(p)
	s.telemetry.RecordTraining(ctx, true, duration, report.Accuracy, report.NumFeatures)
	span.SetAttributes(attribute.Float64("accuracy", report.Accuracy), attribute.Int("features", report.NumFeatures))

	s.log.Info("Model trained",
		logger.ModelVersion(p.Version),
		logger.Float64("accuracy", report.Accuracy),
		logger.Int("train_size", report.TrainSize),
		logger.Int("test_size", report.TestSize),
		logger.Int("features", report.NumFeatures),
		logger.Duration("duration", duration),
	)
	s.log.Debug("Classification report\n" + report.String())

	return &Result{Pipeline: p, Report: report, Source: SourceTrained, Duration: duration}, nil
}

func (s *Store) train(ctx context.Context) (*classifier.Pipeline, *classifier.Report, error) {
	ds, err := dataset.Load(s.cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	if skipped := ds.Skipped(); skipped > 0 {
		s.log.Warn("Skipped dataset rows with empty text or priority", logger.Int("skipped", skipped))
	}

	p, report, err := classifier.Train(ctx, ds, s.cfg.Training, s.cfg.Version)
	if err != nil {
		return nil, nil, err
	}
	if err = classifier.Save(s.cfg.ModelPath, p); err != nil {
		return nil, nil, err
	}
	return p, report, nil
}

func (s *Store) activate(p *classifier.Pipeline) {
	s.current.Store(p)
	s.telemetry.SetModelLoaded(true)
	s.telemetry.Metrics.VocabularySize.Set(float64(p.Vectorizer.NumFeatures()))
}

// Predict classifies text with the active pipeline.
func (s *Store) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	p := s.current.Load()
	if p == nil {
		return domain.Prediction{}, domain.NewModelUnavailableError()
	}

	_, span := s.telemetry.StartSpan(ctx, "model.predict")
	defer span.End()

	start := time.Now()
	pred := p.Classify(text)
	s.telemetry.RecordPrediction(ctx, pred.Priority, time.Since(start))
	span.SetAttributes(attribute.String("priority", pred.Priority), attribute.Float64("confidence", pred.Confidence))
	return pred, nil
}
