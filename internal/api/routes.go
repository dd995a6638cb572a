package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupServiceRoutes configures the service routes. /ready comes from the
// server builder. The history routes exist only when recording is enabled.
func SetupServiceRoutes(router *gin.Engine, handler *Handler, metrics http.Handler) {
	router.GET("/health", handler.Health)    // GET /health
	router.GET("/stats", handler.Stats)      // GET /stats
	router.POST("/predict", handler.Predict) // POST /predict
	router.POST("/train", handler.Train)     // POST /train

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics)) // GET /metrics
	}

	if handler.svc.HistoryEnabled() {
		v1 := router.Group("/api/v1")
		v1.GET("/predictions", handler.ListPredictions)           // GET /api/v1/predictions
		v1.GET("/predictions/summary", handler.PredictionSummary) // GET /api/v1/predictions/summary
	}
}
