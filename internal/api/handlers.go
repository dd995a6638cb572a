// Package api exposes the complaint priority service over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
)

const (
	msgRetrained          = "Model retrained successfully"
	msgComplaintIDInteger = "complaint_id must be an integer"
	msgLimitInteger       = "limit must be an integer"
)

// Handler handles HTTP requests for the complaint priority API.
type Handler struct {
	svc     *service.PriorityService
	version string
	log     logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.PriorityService, version string, log logger.Logger) *Handler {
	return &Handler{svc: svc, version: version, log: log}
}

// TrainResponse is the body of a successful POST /train.
type TrainResponse struct {
	Message      string `json:"message"`
	ModelVersion string `json:"model_version"`
}

// PredictionsResponse is the body of GET /api/v1/predictions.
type PredictionsResponse struct {
	Predictions []domain.PredictionRecord `json:"predictions"`
	Count       int                       `json:"count"`
}

// Predict handles POST /predict.
func (h *Handler) Predict(c *gin.Context) {
	req, msg := parsePredictRequest(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	req.RequestID = c.GetString(infragin.RequestIDKey)

	pred, err := h.svc.Predict(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, pred)
}

// parsePredictRequest reads the JSON body by hand so each malformed shape
// gets its own message.
func parsePredictRequest(c *gin.Context) (service.PredictRequest, string) {
	var req service.PredictRequest

	body, err := c.GetRawData()
	if err != nil {
		return req, service.MsgTextRequired
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal(body, &fields); err != nil || fields == nil {
		return req, service.MsgTextRequired
	}

	raw, ok := fields["complaint_text"]
	if !ok {
		return req, service.MsgTextRequired
	}
	if isNull(raw) {
		return req, service.MsgTextEmpty
	}
	if err = json.Unmarshal(raw, &req.Text); err != nil {
		return req, service.MsgTextNotString
	}

	if rawID, hasID := fields["complaint_id"]; hasID && !isNull(rawID) {
		var id int64
		if err = json.Unmarshal(rawID, &id); err != nil {
			return req, msgComplaintIDInteger
		}
		req.ComplaintID = &id
	}
	return req, ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Train handles POST /train.
func (h *Handler) Train(c *gin.Context) {
	if _, err := h.svc.Retrain(c.Request.Context()); err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, TrainResponse{Message: msgRetrained, ModelVersion: h.version})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListPredictions handles GET /api/v1/predictions.
func (h *Handler) ListPredictions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgLimitInteger})
			return
		}
		limit = n
	}

	records, err := h.svc.RecentPredictions(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, PredictionsResponse{Predictions: records, Count: len(records)})
}

// PredictionSummary handles GET /api/v1/predictions/summary.
func (h *Handler) PredictionSummary(c *gin.Context) {
	summary, err := h.svc.SummarizePredictions(c.Request.Context())
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// respondError maps err to a status code. Model-unavailable errors use
// unavailableStatus, which differs between endpoints.
func (h *Handler) respondError(c *gin.Context, err error, unavailableStatus int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrModelUnavailable):
		status = unavailableStatus
	}

	log := logger.FromContextOr(c.Request.Context(), h.log)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.String("kind", domain.KindOf(err).String()),
			logger.Error(err),
		)
	} else {
		log.Warn("Request rejected",
			logger.String("path", c.FullPath()),
			logger.String("kind", domain.KindOf(err).String()),
			logger.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
