package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckStatus is the outcome of a readiness check.
type CheckStatus string

// Check outcomes. A degraded dependency keeps the service ready.
const (
	StatusReady    CheckStatus = "ready"
	StatusDegraded CheckStatus = "degraded"
	StatusNotReady CheckStatus = "not_ready"
)

const readinessCheckTimeout = 3 * time.Second

// CheckResult is the result of one dependency check.
type CheckResult struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
	Latency string      `json:"latency,omitempty"`
}

// ReadinessResponse is the body of GET /ready.
type ReadinessResponse struct {
	Status  CheckStatus            `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessChecker checks one dependency.
type ReadinessChecker func(ctx context.Context) CheckResult

// ReadinessOptions configures the readiness route.
type ReadinessOptions struct {
	ServiceName    string
	ServiceVersion string
	Checks         map[string]ReadinessChecker
}

// RegisterReadinessRoute adds GET /ready, answering 503 when any required check fails.
func RegisterReadinessRoute(router *gin.Engine, opts ReadinessOptions) {
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
		defer cancel()

		resp := ReadinessResponse{
			Status:  StatusReady,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
		}
		if len(opts.Checks) > 0 {
			resp.Checks = make(map[string]CheckResult, len(opts.Checks))
		}
		for name, check := range opts.Checks {
			result := check(ctx)
			resp.Checks[name] = result
			switch {
			case result.Status == StatusNotReady:
				resp.Status = StatusNotReady
			case result.Status == StatusDegraded && resp.Status == StatusReady:
				resp.Status = StatusDegraded
			}
		}

		code := http.StatusOK
		if resp.Status == StatusNotReady {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})
}

// PingChecker builds a checker from a ping function. A failing required
// dependency marks the service not ready; an optional one only degrades it.
func PingChecker(name string, required bool, ping func(ctx context.Context) error) ReadinessChecker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		latency := time.Since(start).String()

		if err == nil {
			return CheckResult{Status: StatusReady, Message: name + " connection OK", Latency: latency}
		}
		status := StatusDegraded
		if required {
			status = StatusNotReady
		}
		return CheckResult{Status: status, Message: name + " connection failed", Latency: latency}
	}
}
