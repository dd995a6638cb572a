package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/config"
	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/api"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/classifier"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/testhelpers"
)

func startAPI(t *testing.T, load bool) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tp := telemetry.NewProvider()
	store := model.NewStore(model.Config{
		ModelPath: filepath.Join(t.TempDir(), "complaint_model.json"),
		DataPath:  testhelpers.WriteDataset(t, 20),
		Version:   "v1.0",
		Training:  classifier.DefaultTrainingConfig(),
	}, logger.NewNop(), tp)
	svc := service.New(store, tp, "v1.0", logger.NewNop())
	if load {
		_, err := svc.Initialize(context.Background())
		require.NoError(t, err)
	}

	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "complaint-priority", Version: "test"},
		Server:  infraconfig.ServerConfig{Port: 5000},
	}
	checks := map[string]infragin.ReadinessChecker{"model": api.ModelReadinessCheck(svc)}
	srv := api.NewServer(api.NewHandler(svc, "v1.0", logger.NewNop()), cfg, tp.Handler(), checks, logger.NewNop())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestChecker_Run(t *testing.T) {
	ts := startAPI(t, true)

	var out bytes.Buffer
	c := &checker{baseURL: ts.URL, client: ts.Client(), out: &out}
	require.NoError(t, c.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "All checks passed")
	assert.Equal(t, len(sampleComplaints)+4, strings.Count(got, "Status Code:"))
	assert.Contains(t, got, `"error": "complaint_text cannot be empty"`)
	assert.Contains(t, got, `"error": "complaint_text is required"`)
	assert.NotContains(t, got, "FAIL")
}

func TestChecker_Run_ModelNotLoaded(t *testing.T) {
	ts := startAPI(t, false)

	var out bytes.Buffer
	c := &checker{baseURL: ts.URL, client: ts.Client(), out: &out}
	err := c.Run(context.Background())

	require.Error(t, err)
	// stats and the five predictions fail; health and both validation cases pass.
	assert.Equal(t, "6 checks failed", err.Error())
	assert.Contains(t, out.String(), "FAIL stats: got status 400, want 200")
}

func TestChecker_Run_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := &checker{baseURL: url, client: &http.Client{}, out: &bytes.Buffer{}}
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reach API")
}

func TestIndentJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", indentJSON([]byte(`{"a":1}`)))
	assert.Equal(t, "not json", indentJSON([]byte("not json")))
}

func TestRenderStats(t *testing.T) {
	var out bytes.Buffer
	renderStats(&out, domain.DatasetStats{
		TotalSamples:         10,
		PriorityDistribution: map[string]int{"low": 2, "critical": 5, "high": 3},
		Classes:              []string{"critical", "high", "low"},
		ModelType:            domain.ModelType,
	})

	got := out.String()
	assert.Contains(t, got, "10 samples across 3 classes")
	assert.Contains(t, got, domain.ModelType)
	assert.Contains(t, got, "50.0%")
	assert.Less(t, strings.Index(got, "critical"), strings.Index(got, "high"))
	assert.Less(t, strings.Index(got, "high"), strings.Index(got, "low"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "complaint-priority version dev\n", out.String())
}
