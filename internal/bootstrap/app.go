package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	infragin "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/api"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/database"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/model"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/telemetry"
)

// App holds the wired service components.
type App struct {
	Config    *config.Config
	Log       infralogger.Logger
	Telemetry *telemetry.Provider
	Store     *model.Store
	Service   *service.PriorityService

	db        *sqlx.DB
	repo      *database.PredictionRepository
	publisher events.Publisher
	redisPub  *events.RedisPublisher
}

// NewApp builds the model store and the service. The database and Redis are
// connected only when configured; a failure to connect to either is fatal.
func NewApp(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*App, error) {
	tp := telemetry.NewProvider()
	store := model.NewStore(model.Config{
		ModelPath: cfg.Model.Path,
		DataPath:  cfg.Model.DataPath,
		Version:   cfg.Model.Version,
		Training:  cfg.Training.TrainingConfig,
	}, log, tp)

	app := &App{
		Config:    cfg,
		Log:       log,
		Telemetry: tp,
		Store:     store,
		publisher: events.NopPublisher{},
	}

	var opts []service.Option
	if cfg.Database.Enabled() {
		if err := app.setupDatabase(ctx); err != nil {
			app.Close()
			return nil, err
		}
		opts = append(opts, service.WithRecorder(app.repo))
	}
	if cfg.Redis.Enabled {
		if err := app.setupRedis(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	opts = append(opts, service.WithPublisher(app.publisher))

	app.Service = service.New(store, tp, cfg.Model.Version, log, opts...)
	return app, nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	db, err := database.Open(ctx, a.Config.Database, a.Log)
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	a.db = db
	if err = database.RunMigrations(a.Config.Database, a.Log); err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	a.repo = database.NewPredictionRepository(db)
	a.Log.Info("Prediction history enabled", infralogger.String("driver", a.Config.Database.Driver))
	return nil
}

func (a *App) setupRedis(ctx context.Context) error {
	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("setup redis: %w", err)
	}
	a.redisPub = events.NewRedisPublisher(client, a.Config.Redis.Channel, a.Log)
	a.publisher = a.redisPub
	a.Log.Info("Event publishing enabled",
		infralogger.String("address", a.Config.Redis.Address),
		infralogger.String("channel", a.Config.Redis.Channel),
	)
	return nil
}

// ReadinessChecks returns the /ready checks: the model is required, the
// optional backends only degrade readiness.
func (a *App) ReadinessChecks() map[string]infragin.ReadinessChecker {
	checks := map[string]infragin.ReadinessChecker{
		"model": api.ModelReadinessCheck(a.Service),
	}
	if a.repo != nil {
		checks["database"] = infragin.PingChecker("database", false, a.repo.Ping)
	}
	if a.redisPub != nil {
		checks["redis"] = infragin.PingChecker("redis", false, a.redisPub.Ping)
	}
	return checks
}

// NewServer builds the HTTP server for the app.
func (a *App) NewServer() *infragin.Server {
	handler := api.NewHandler(a.Service, a.Config.Model.Version, a.Log)
	return api.NewServer(handler, a.Config, a.Telemetry.Handler(), a.ReadinessChecks(), a.Log)
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.Log.Warn("Error while closing connections", infralogger.Error(err))
	}
}
