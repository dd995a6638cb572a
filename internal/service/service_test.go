package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/classifier"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/testhelpers"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []domain.PredictionRecord
	err     error
}

func (f *fakeRecorder) Create(_ context.Context, rec *domain.PredictionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeRecorder) ListRecent(_ context.Context, limit int) ([]domain.PredictionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records[:min(limit, len(f.records))], nil
}

func (f *fakeRecorder) CountByPriority(context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	counts := make(map[string]int)
	for _, rec := range f.records {
		counts[rec.PredictedPriority]++
	}
	return counts, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	events    []infraevents.Envelope
	deadlines []time.Time
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, env infraevents.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, env)
	deadline, _ := ctx.Deadline()
	f.deadlines = append(f.deadlines, deadline)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []infraevents.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]infraevents.EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.EventType
	}
	return out
}

type fixture struct {
	svc       *service.PriorityService
	recorder  *fakeRecorder
	publisher *fakePublisher
	dataPath  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dataPath := testhelpers.WriteDataset(t, 20)
	tp := telemetry.NewProvider()
	store := model.NewStore(model.Config{
		ModelPath: filepath.Join(t.TempDir(), "complaint_model.json"),
		DataPath:  dataPath,
		Version:   "v1.0",
		Training:  classifier.DefaultTrainingConfig(),
	}, logger.NewNop(), tp)

	f := &fixture{recorder: &fakeRecorder{}, publisher: &fakePublisher{}, dataPath: dataPath}
	f.svc = service.New(store, tp, "v1.0", logger.NewNop(),
		service.WithRecorder(f.recorder),
		service.WithPublisher(f.publisher),
	)
	return f
}

func TestPredict_RejectsBlankText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Predict(context.Background(), service.PredictRequest{Text: text})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, service.MsgTextEmpty, err.Error())
	}
}

func TestPredict_ModelNotLoaded(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Predict(context.Background(), service.PredictRequest{Text: "server down"})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Empty(t, f.recorder.records)
}

func TestInitialize_PublishesEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SourceTrained, res.Source)
	assert.Equal(t, []infraevents.EventType{events.ModelTrained, events.ModelLoaded}, f.publisher.types())
	assert.True(t, f.svc.Health().ModelLoaded)
}

func TestPredict_RecordsAndPublishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)

	id := int64(99)
	pred, err := f.svc.Predict(context.Background(), service.PredictRequest{
		Text:        "Server is down and not responding",
		ComplaintID: &id,
		RequestID:   "req-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "v1.0", pred.ModelVersion)
	assert.Contains(t, []string{"critical", "high"}, pred.Priority)
	assert.Len(t, pred.AllScores, 4)

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, pred.Priority, rec.PredictedPriority)
	assert.Equal(t, &id, rec.ComplaintID)
	assert.Equal(t, "req-1", rec.RequestID)

	got := f.publisher.types()
	assert.Equal(t, events.PriorityPredicted, got[len(got)-1])
}

func TestPredict_SideEffectFailuresDoNotFailRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)

	f.recorder.err = errors.New("disk full")
	f.publisher.err = errors.New("redis down")

	_, err = f.svc.Predict(context.Background(), service.PredictRequest{Text: "Please add dark mode"})
	require.NoError(t, err)
}

func TestRetrain_PublishesModelTrained(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)

	res, err := f.svc.Retrain(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	got := f.publisher.types()
	assert.Equal(t, events.ModelTrained, got[len(got)-1])
}

func TestStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Stats(context.Background())
	require.ErrorIs(t, err, domain.ErrModelUnavailable)

	_, err = f.svc.Initialize(context.Background())
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 80, stats.TotalSamples)
	assert.Equal(t, map[string]int{"critical": 20, "high": 20, "low": 20, "medium": 20}, stats.PriorityDistribution)
	assert.Equal(t, testhelpers.Priorities, stats.Classes)
	assert.Equal(t, "Naive Bayes with TF-IDF", stats.ModelType)

	require.NoError(t, os.Remove(f.dataPath))
	_, err = f.svc.Stats(context.Background())
	require.ErrorIs(t, err, domain.ErrDataAccessFailure)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	h := f.svc.Health()

	assert.Equal(t, "healthy", h.Status)
	assert.False(t, h.ModelLoaded)
	assert.Equal(t, "v1.0", h.Version)
}

func TestRecentPredictions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)
	for _, text := range []string{"server down", "typo on page"} {
		_, err = f.svc.Predict(context.Background(), service.PredictRequest{Text: text})
		require.NoError(t, err)
	}

	records, err := f.svc.RecentPredictions(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	disabled := service.New(nil, telemetry.NewProvider(), "v1.0", logger.NewNop())
	assert.False(t, disabled.HistoryEnabled())
	_, err = disabled.RecentPredictions(context.Background(), 10)
	require.ErrorIs(t, err, domain.ErrDataAccessFailure)
	require.ErrorIs(t, err, service.ErrHistoryDisabled)
}

func TestPredict_PublishHasOwnDeadline(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Initialize(context.Background())
	require.NoError(t, err)

	before := time.Now()
	_, err = f.svc.Predict(context.Background(), service.PredictRequest{Text: "checkout page is broken"})
	require.NoError(t, err)

	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	require.NotEmpty(t, f.publisher.deadlines)
	deadline := f.publisher.deadlines[len(f.publisher.deadlines)-1]
	require.False(t, deadline.IsZero(), "publish context has no deadline")
	assert.WithinDuration(t, before.Add(2*time.Second), deadline, time.Second)
}

func TestSummarizePredictions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.recorder.records = []domain.PredictionRecord{
		{PredictedPriority: "critical"},
		{PredictedPriority: "critical"},
		{PredictedPriority: "low"},
	}

	summary, err := f.svc.SummarizePredictions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, map[string]int{"critical": 2, "low": 1}, summary.ByPriority)

	f.recorder.err = errors.New("connection reset")
	_, err = f.svc.SummarizePredictions(context.Background())
	require.ErrorIs(t, err, domain.ErrDataAccessFailure)

	disabled := service.New(nil, telemetry.NewProvider(), "v1.0", logger.NewNop())
	_, err = disabled.SummarizePredictions(context.Background())
	require.ErrorIs(t, err, service.ErrHistoryDisabled)
}
