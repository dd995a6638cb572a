package bootstrap

import (
	"context"
	"fmt"

	infracontext "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/context"
	infralogger "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
)

// RunServer starts profiling, loads or trains the model, starts the optional
// retrain schedule and serves HTTP until ctx is cancelled or a signal arrives.
func RunServer(ctx context.Context, cfg *config.Config, log infralogger.Logger) error {
	profiling.StartPprofServer(cfg.Profiling, log)
	profiler, err := profiling.StartPyroscope(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", infralogger.Error(err))
	}
	defer func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			log.Warn("Failed to stop profiler", infralogger.Error(stopErr))
		}
	}()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize model: %w", err)
	}
	log.Info("Model ready",
		infralogger.String("source", string(res.Source)),
		infralogger.ModelVersion(res.Pipeline.Version),
		infralogger.Strings("classes", res.Pipeline.Classes()),
	)

	if cfg.Training.Schedule != "" {
		retrain := func(jobCtx context.Context) error {
			_, retrainErr := app.Service.Retrain(jobCtx)
			return retrainErr
		}
		scheduler, schedErr := model.NewScheduler(ctx, cfg.Training.Schedule, retrain, log)
		if schedErr != nil {
			return schedErr
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := infracontext.WithShutdownTimeout(ctx)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	return app.NewServer().RunWithGracefulShutdown(ctx)
}
