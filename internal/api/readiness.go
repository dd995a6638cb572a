package api

import (
	"context"

	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
)

// ModelReadinessCheck reports not ready until a model is loaded.
func ModelReadinessCheck(svc *service.PriorityService) infragin.ReadinessChecker {
	return func(context.Context) infragin.CheckResult {
		if svc.Health().ModelLoaded {
			return infragin.CheckResult{Status: infragin.StatusReady, Message: "model loaded"}
		}
		return infragin.CheckResult{Status: infragin.StatusNotReady, Message: "model not loaded"}
	}
}
