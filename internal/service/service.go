// Package service implements the complaint priority operations behind the
// HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	infraevents "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/dataset"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
)

// Validation messages returned to API callers.
const (
	MsgTextRequired  = "complaint_text is required"
	MsgTextEmpty     = "complaint_text cannot be empty"
	MsgTextNotString = "complaint_text must be a string"
)

// publishTimeout bounds each event publish so a slow broker cannot stall a request.
const publishTimeout = 2 * time.Second

// HealthStatus is the liveness summary.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

// PredictionRecorder stores predictions. It is optional.
type PredictionRecorder interface {
	Create(ctx context.Context, rec *domain.PredictionRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
	CountByPriority(ctx context.Context) (map[string]int, error)
}

// PredictRequest is one complaint to classify.
type PredictRequest struct {
	Text        string
	ComplaintID *int64
	RequestID   string
}

// PriorityService ties the model store to recording, events and telemetry.
type PriorityService struct {
	store     *model.Store
	recorder  PredictionRecorder
	publisher events.Publisher
	telemetry *telemetry.Provider
	version   string
	log       logger.Logger
}

// Option configures a PriorityService.
type Option func(*PriorityService)

// WithRecorder enables prediction history.
func WithRecorder(r PredictionRecorder) Option {
	return func(s *PriorityService) { s.recorder = r }
}

// WithPublisher sets the event publisher. The default drops events.
func WithPublisher(p events.Publisher) Option {
	return func(s *PriorityService) { s.publisher = p }
}

// New creates the service. version is the reported API model version.
func New(store *model.Store, tp *telemetry.Provider, version string, log logger.Logger, opts ...Option) *PriorityService {
	s := &PriorityService{
		store:     store,
		publisher: events.NopPublisher{},
		telemetry: tp,
		version:   version,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HistoryEnabled reports whether predictions are recorded.
func (s *PriorityService) HistoryEnabled() bool {
	return s.recorder != nil
}

// Initialize loads the saved model or trains a new one.
func (s *PriorityService) Initialize(ctx context.Context) (*model.Result, error) {
	res, err := s.store.LoadOrTrain(ctx)
	if err != nil {
		return nil, err
	}
	if res.Source == model.SourceTrained {
		s.publishTrained(ctx, res)
	}
	s.publish(ctx, infraevents.New(events.ModelLoaded, events.Source, events.ModelLoadedPayload{
		ModelVersion: res.Pipeline.Version,
		Source:       string(res.Source),
		TrainedAt:    res.Pipeline.TrainedAt,
	}))
	return res, nil
}

// Predict validates and classifies one complaint.
func (s *PriorityService) Predict(ctx context.Context, req PredictRequest) (domain.Prediction, error) {
	if strings.TrimSpace(req.Text) == "" {
		s.telemetry.RecordPredictionError(ctx, domain.KindValidation.String())
		return domain.Prediction{}, domain.NewValidationError(MsgTextEmpty)
	}

	pred, err := s.store.Predict(ctx, req.Text)
	if err != nil {
		s.telemetry.RecordPredictionError(ctx, domain.KindOf(err).String())
		return domain.Prediction{}, err
	}
	pred.ModelVersion = s.version

	s.loggerFor(ctx).Info("Complaint classified",
		logger.Priority(pred.Priority),
		logger.Float64("confidence", pred.Confidence),
	)

	s.record(ctx, req, pred)
	s.publish(ctx, infraevents.New(events.PriorityPredicted, events.Source, events.PriorityPredictedPayload{
		ComplaintID:  req.ComplaintID,
		Priority:     pred.Priority,
		Confidence:   pred.Confidence,
		ModelVersion: pred.ModelVersion,
		RequestID:    req.RequestID,
	}))
	return pred, nil
}

// Retrain retrains synchronously and swaps the active model.
func (s *PriorityService) Retrain(ctx context.Context) (*model.Result, error) {
	res, err := s.store.Retrain(ctx)
	if err != nil {
		return nil, err
	}
	s.publishTrained(ctx, res)
	return res, nil
}

// Stats re-reads the dataset and reports its label distribution together
// with the active model's classes.
func (s *PriorityService) Stats(_ context.Context) (domain.DatasetStats, error) {
	p := s.store.Current()
	if p == nil {
		return domain.DatasetStats{}, domain.NewModelUnavailableError()
	}

	ds, err := dataset.Load(s.store.DataPath())
	if err != nil {
		return domain.DatasetStats{}, domain.NewDataAccessError(err)
	}

	return domain.DatasetStats{
		TotalSamples:         ds.TotalRows,
		PriorityDistribution: ds.Distribution,
		Classes:              p.Classes(),
		ModelType:            domain.ModelType,
	}, nil
}

// Health reports liveness and model state.
func (s *PriorityService) Health() HealthStatus {
	return HealthStatus{
		Status:      "healthy",
		ModelLoaded: s.store.Loaded(),
		Version:     s.version,
	}
}

// ErrHistoryDisabled is returned when no prediction recorder is configured.
var ErrHistoryDisabled = errors.New("prediction history is not configured")

// RecentPredictions lists the newest recorded predictions.
func (s *PriorityService) RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	if s.recorder == nil {
		return nil, domain.NewDataAccessError(ErrHistoryDisabled)
	}
	records, err := s.recorder.ListRecent(ctx, limit)
	if err != nil {
		return nil, domain.NewDataAccessError(err)
	}
	return records, nil
}

// PredictionSummary is the number of recorded predictions per priority.
type PredictionSummary struct {
	Total      int            `json:"total"`
	ByPriority map[string]int `json:"by_priority"`
}

// SummarizePredictions counts recorded predictions by priority.
func (s *PriorityService) SummarizePredictions(ctx context.Context) (PredictionSummary, error) {
	if s.recorder == nil {
		return PredictionSummary{}, domain.NewDataAccessError(ErrHistoryDisabled)
	}
	counts, err := s.recorder.CountByPriority(ctx)
	if err != nil {
		return PredictionSummary{}, domain.NewDataAccessError(err)
	}
	summary := PredictionSummary{ByPriority: counts}
	for _, n := range counts {
		summary.Total += n
	}
	return summary, nil
}

func (s *PriorityService) record(ctx context.Context, req PredictRequest, pred domain.Prediction) {
	if s.recorder == nil {
		return
	}
	rec := &domain.PredictionRecord{
		ComplaintID:       req.ComplaintID,
		ComplaintText:     req.Text,
		PredictedPriority: pred.Priority,
		ConfidenceScore:   pred.Confidence,
		ModelVersion:      pred.ModelVersion,
		RequestID:         req.RequestID,
	}
	if err := s.recorder.Create(ctx, rec); err != nil {
		s.loggerFor(ctx).Warn("Failed to record prediction", logger.Error(err))
	}
}

func (s *PriorityService) publishTrained(ctx context.Context, res *model.Result) {
	payload := events.ModelTrainedPayload{
		ModelVersion: res.Pipeline.Version,
		Classes:      res.Pipeline.Classes(),
		DurationMS:   res.Duration.Milliseconds(),
	}
	if r := res.Report; r != nil {
		payload.Accuracy = r.Accuracy
		payload.TrainSize = r.TrainSize
		payload.TestSize = r.TestSize
		payload.Features = r.NumFeatures
	}
	s.publish(ctx, infraevents.New(events.ModelTrained, events.Source, payload))
}

func (s *PriorityService) publish(ctx context.Context, env infraevents.Envelope) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, env); err != nil {
		s.loggerFor(ctx).Warn("Failed to publish event",
			logger.String("event_type", string(env.EventType)),
			logger.Error(err),
		)
	}
}

func (s *PriorityService) loggerFor(ctx context.Context) logger.Logger {
	return logger.FromContextOr(ctx, s.log)
}
