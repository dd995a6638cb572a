// Package config defines the complaint priority service configuration.
package config

import (
	"fmt"

	infraconfig "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/classifier"
)

// Default configuration values.
const (
	defaultServiceName    = "complaint-priority"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 5000
	defaultModelPath      = "complaint_model.json"
	defaultDataPath       = "data.csv"
	defaultModelVersion   = "v1.0"
	defaultRedisChannel   = "complaint-priority:events"
	defaultConfigPath     = "config.yml"
)

// Config holds all configuration for the complaint priority service.
type Config struct {
	Service   ServiceConfig              `yaml:"service"`
	Server    infraconfig.ServerConfig   `yaml:"server"`
	Model     ModelConfig                `yaml:"model"`
	Training  TrainingConfig             `yaml:"training"`
	Database  infraconfig.DatabaseConfig `yaml:"database"`
	Redis     infraconfig.RedisConfig    `yaml:"redis"`
	Logging   infraconfig.LoggingConfig  `yaml:"logging"`
	Profiling profiling.Config           `yaml:"profiling"`
}

// ServiceConfig holds service identity.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// ModelConfig locates the dataset and the saved model.
type ModelConfig struct {
	Path     string `env:"MODEL_PATH" yaml:"path"`
	DataPath string `env:"DATA_PATH"  yaml:"data_path"`
	// Version is reported with every prediction.
	Version string `yaml:"version"`
}

// TrainingConfig holds hyperparameters and the optional retrain schedule.
type TrainingConfig struct {
	classifier.TrainingConfig `yaml:",inline"`

	// Seed is the split seed. Nil selects the default; 0 is a valid seed.
	Seed *int64 `yaml:"seed"`

	// Schedule is a five-field cron expression; empty disables scheduled retraining.
	Schedule string `env:"TRAINING_SCHEDULE" yaml:"schedule"`
}

// Path returns the config file location, honoring CONFIG_PATH.
func Path() string {
	return infraconfig.GetConfigPath(defaultConfigPath)
}

// Load reads path, falling back to defaults and environment when the file
// does not exist.
func Load(path string) (*Config, error) {
	return infraconfig.LoadOrDefault[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	cfg.Server.SetDefaults(defaultServicePort)
	setModelDefaults(&cfg.Model)
	setTrainingDefaults(&cfg.Training)
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults(defaultRedisChannel)
	cfg.Logging.SetDefaults()
	cfg.Profiling.SetDefaults()
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
}

func setModelDefaults(m *ModelConfig) {
	if m.Path == "" {
		m.Path = defaultModelPath
	}
	if m.DataPath == "" {
		m.DataPath = defaultDataPath
	}
	if m.Version == "" {
		m.Version = defaultModelVersion
	}
}

func setTrainingDefaults(t *TrainingConfig) {
	def := classifier.DefaultTrainingConfig()
	if t.TestSize == 0 {
		t.TestSize = def.TestSize
	}
	if t.Seed == nil {
		seed := def.Seed
		t.Seed = &seed
	}
	t.TrainingConfig.Seed = *t.Seed
	if t.MaxFeatures == 0 {
		t.MaxFeatures = def.MaxFeatures
	}
	if t.MinDF == 0 {
		t.MinDF = def.MinDF
	}
	if t.NGramMin == 0 {
		t.NGramMin = def.NGramMin
	}
	if t.NGramMax == 0 {
		t.NGramMax = def.NGramMax
	}
	if t.Alpha == 0 {
		t.Alpha = def.Alpha
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.Database.Validate,
		c.Redis.Validate,
		c.Logging.Validate,
		c.Model.Validate,
		c.Training.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

// Validate checks the model paths.
func (m *ModelConfig) Validate() error {
	if err := infraconfig.ValidateRequired("model.path", m.Path); err != nil {
		return err
	}
	return infraconfig.ValidateRequired("model.data_path", m.DataPath)
}

// Validate checks the hyperparameters.
func (t *TrainingConfig) Validate() error {
	switch {
	case t.TestSize <= 0 || t.TestSize >= 1:
		return &infraconfig.ValidationError{Field: "training.test_size", Message: "must be between 0 and 1"}
	case t.Alpha <= 0:
		return &infraconfig.ValidationError{Field: "training.alpha", Message: "must be positive"}
	case t.MinDF < 1:
		return &infraconfig.ValidationError{Field: "training.min_df", Message: "must be at least 1"}
	case t.NGramMin < 1 || t.NGramMax < t.NGramMin:
		return &infraconfig.ValidationError{Field: "training.ngram_max", Message: "must be at least ngram_min, which must be at least 1"}
	case t.MaxFeatures < 0:
		return &infraconfig.ValidationError{Field: "training.max_features", Message: "must not be negative"}
	}
	return nil
}
