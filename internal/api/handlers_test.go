package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	infraconfig "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/config"
	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/classifier"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/testhelpers"
)

type memoryRecorder struct {
	records []domain.PredictionRecord
}

func (m *memoryRecorder) Create(_ context.Context, rec *domain.PredictionRecord) error {
	rec.ID = int64(len(m.records) + 1)
	m.records = append([]domain.PredictionRecord{*rec}, m.records...)
	return nil
}

func (m *memoryRecorder) ListRecent(_ context.Context, limit int) ([]domain.PredictionRecord, error) {
	return m.records[:min(limit, len(m.records))], nil
}

func (m *memoryRecorder) CountByPriority(context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, rec := range m.records {
		counts[rec.PredictedPriority]++
	}
	return counts, nil
}

type testAPI struct {
	router *gin.Engine
	svc    *service.PriorityService
}

// setupTestAPI builds the full router. The model is not loaded until
// load is called.
func setupTestAPI(t *testing.T, opts ...service.Option) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tp := telemetry.NewProvider()
	store := model.NewStore(model.Config{
		ModelPath: filepath.Join(t.TempDir(), "complaint_model.json"),
		DataPath:  testhelpers.WriteDataset(t, 20),
		Version:   "v1.0",
		Training:  classifier.DefaultTrainingConfig(),
	}, logger.NewNop(), tp)
	svc := service.New(store, tp, "v1.0", logger.NewNop(), opts...)

	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "complaint-priority", Version: "test"},
		Server:  infraconfig.ServerConfig{Port: 5000},
	}
	checks := map[string]infragin.ReadinessChecker{"model": ModelReadinessCheck(svc)}
	srv := NewServer(NewHandler(svc, "v1.0", logger.NewNop()), cfg, tp.Handler(), checks, logger.NewNop())

	return &testAPI{router: srv.Router(), svc: svc}
}

func (a *testAPI) load(t *testing.T) {
	t.Helper()
	if _, err := a.svc.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestHealth(t *testing.T) {
	a := setupTestAPI(t)

	rec := a.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	h := decode[service.HealthStatus](t, rec)
	if h.Status != "healthy" || h.ModelLoaded || h.Version != "v1.0" {
		t.Errorf("unexpected health before load: %+v", h)
	}

	a.load(t)
	if h = decode[service.HealthStatus](t, a.do(t, http.MethodGet, "/health", "")); !h.ModelLoaded {
		t.Error("model_loaded should be true after load")
	}
}

func TestModelNotLoaded(t *testing.T) {
	a := setupTestAPI(t)

	rec := a.do(t, http.MethodPost, "/predict", `{"complaint_text": "Server is down"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("predict status = %d, want 500", rec.Code)
	}
	if got := errorOf(t, rec); got != "Model not loaded" {
		t.Errorf("predict error = %q", got)
	}

	rec = a.do(t, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("stats status = %d, want 400", rec.Code)
	}
	if got := errorOf(t, rec); got != "Model not loaded" {
		t.Errorf("stats error = %q", got)
	}

	if rec = a.do(t, http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
}

func TestPredict(t *testing.T) {
	a := setupTestAPI(t)
	a.load(t)

	rec := a.do(t, http.MethodPost, "/predict", `{"complaint_text": "Server is down and not responding"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	pred := decode[domain.Prediction](t, rec)
	if pred.Priority != "critical" && pred.Priority != "high" {
		t.Errorf("priority = %q, want critical or high", pred.Priority)
	}
	if pred.Confidence <= 0 || pred.Confidence > 1 {
		t.Errorf("confidence = %v, want (0, 1]", pred.Confidence)
	}
	if len(pred.AllScores) != 4 {
		t.Errorf("all_scores has %d entries, want 4", len(pred.AllScores))
	}
	if pred.AllScores[pred.Priority] != pred.Confidence {
		t.Error("confidence must equal the winning class score")
	}
	if pred.ModelVersion != "v1.0" {
		t.Errorf("model_version = %q", pred.ModelVersion)
	}
	if rec.Header().Get(infragin.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestPredict_Validation(t *testing.T) {
	a := setupTestAPI(t)
	a.load(t)

	testCases := []struct {
		name string
		body string
		want string
	}{
		{"missing key", `{}`, service.MsgTextRequired},
		{"other keys only", `{"text": "server down"}`, service.MsgTextRequired},
		{"invalid json", `not json`, service.MsgTextRequired},
		{"array body", `["server down"]`, service.MsgTextRequired},
		{"null body", `null`, service.MsgTextRequired},
		{"empty string", `{"complaint_text": ""}`, service.MsgTextEmpty},
		{"whitespace", `{"complaint_text": "   "}`, service.MsgTextEmpty},
		{"null text", `{"complaint_text": null}`, service.MsgTextEmpty},
		{"number", `{"complaint_text": 5}`, service.MsgTextNotString},
		{"bad complaint id", `{"complaint_text": "server down", "complaint_id": "abc"}`, msgComplaintIDInteger},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/predict", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := errorOf(t, rec); got != tc.want {
				t.Errorf("error = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTrain(t *testing.T) {
	a := setupTestAPI(t)
	a.load(t)

	rec := a.do(t, http.MethodPost, "/train", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[TrainResponse](t, rec)
	if resp.Message != "Model retrained successfully" || resp.ModelVersion != "v1.0" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestStats(t *testing.T) {
	a := setupTestAPI(t)
	a.load(t)

	rec := a.do(t, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	stats := decode[domain.DatasetStats](t, rec)
	if stats.TotalSamples != 80 {
		t.Errorf("total_samples = %d, want 80", stats.TotalSamples)
	}
	if stats.PriorityDistribution["critical"] != 20 {
		t.Errorf("priority_distribution = %v", stats.PriorityDistribution)
	}
	if len(stats.Classes) != 4 {
		t.Errorf("classes = %v", stats.Classes)
	}
	if stats.ModelType != "Naive Bayes with TF-IDF" {
		t.Errorf("model_type = %q", stats.ModelType)
	}
}

func TestReadyAndMetrics(t *testing.T) {
	a := setupTestAPI(t)
	a.load(t)

	if rec := a.do(t, http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	a.do(t, http.MethodPost, "/predict", `{"complaint_text": "typo on the about page"}`)
	rec := a.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "complaint_priority_predictions_total") {
		t.Error("metrics output missing predictions counter")
	}
}

func TestListPredictions(t *testing.T) {
	a := setupTestAPI(t)
	if rec := a.do(t, http.MethodGet, "/api/v1/predictions", ""); rec.Code != http.StatusNotFound {
		t.Errorf("history route without recorder: status = %d, want 404", rec.Code)
	}

	a = setupTestAPI(t, service.WithRecorder(&memoryRecorder{}))
	a.load(t)
	for _, body := range []string{
		`{"complaint_text": "server down", "complaint_id": 1}`,
		`{"complaint_text": "add dark mode", "complaint_id": 2}`,
	} {
		if rec := a.do(t, http.MethodPost, "/predict", body); rec.Code != http.StatusOK {
			t.Fatalf("predict status = %d", rec.Code)
		}
	}

	rec := a.do(t, http.MethodGet, "/api/v1/predictions?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[PredictionsResponse](t, rec)
	if resp.Count != 1 || len(resp.Predictions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if id := resp.Predictions[0].ComplaintID; id == nil || *id != 2 {
		t.Errorf("newest complaint_id = %v, want 2", id)
	}

	if rec = a.do(t, http.MethodGet, "/api/v1/predictions?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestPredictionSummary(t *testing.T) {
	a := setupTestAPI(t)
	if rec := a.do(t, http.MethodGet, "/api/v1/predictions/summary", ""); rec.Code != http.StatusNotFound {
		t.Errorf("summary route without recorder: status = %d, want 404", rec.Code)
	}

	recorder := &memoryRecorder{}
	a = setupTestAPI(t, service.WithRecorder(recorder))
	a.load(t)
	for _, body := range []string{
		`{"complaint_text": "server down"}`,
		`{"complaint_text": "payment failed twice"}`,
		`{"complaint_text": "add dark mode"}`,
	} {
		if rec := a.do(t, http.MethodPost, "/predict", body); rec.Code != http.StatusOK {
			t.Fatalf("predict status = %d", rec.Code)
		}
	}

	rec := a.do(t, http.MethodGet, "/api/v1/predictions/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	summary := decode[service.PredictionSummary](t, rec)
	if summary.Total != 3 {
		t.Errorf("total = %d, want 3", summary.Total)
	}
	sum := 0
	for priority, n := range summary.ByPriority {
		if !strings.Contains("critical high medium low", priority) {
			t.Errorf("unexpected priority %q in summary", priority)
		}
		sum += n
	}
	if sum != summary.Total {
		t.Errorf("by_priority sums to %d, total = %d", sum, summary.Total)
	}
}

func TestCORSOriginsFromConfig(t *testing.T) {
	tp := telemetry.NewProvider()
	svc := service.New(nil, tp, "v1.0", logger.NewNop())
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "complaint-priority", Version: "test"},
		Server: infraconfig.ServerConfig{
			Port:        5000,
			CORSOrigins: []string{"https://dashboard.example"},
		},
	}
	router := NewServer(NewHandler(svc, "v1.0", logger.NewNop()), cfg, nil, nil, logger.NewNop()).Router()

	for origin, want := range map[string]string{
		"https://dashboard.example": "https://dashboard.example",
		"https://elsewhere.example": "",
	} {
		req := httptest.NewRequest(http.MethodOptions, "/predict", http.NoBody)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", origin, got, want)
		}
	}
}
