package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
)

// NewServer creates the HTTP server using the infrastructure gin package.
func NewServer(
	handler *Handler,
	cfg *config.Config,
	metrics http.Handler,
	checks map[string]infragin.ReadinessChecker,
	log logger.Logger,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Server.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithCORS(infragin.CORSConfig{AllowedOrigins: cfg.Server.CORSOrigins}).
		WithRoutes(func(router *gin.Engine) {
			SetupServiceRoutes(router, handler, metrics)
		})

	for name, check := range checks {
		builder = builder.WithReadinessCheck(name, check)
	}

	return builder.Build()
}
