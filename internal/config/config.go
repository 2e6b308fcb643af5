package config

import (
	"os"
	"strconv"

	"bcall/domain/bcall"
	"bcall/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisDefaults
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings. An empty URL disables
// persistence; runs then live only in their export files.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AnalysisDefaults holds the default analysis parameters, overridable per run.
type AnalysisDefaults struct {
	Metric    string
	Threshold float64
	Normalize bool
}

// PathConfig holds file system paths
type PathConfig struct {
	// DataFile is the roll-call source used when a command names none.
	DataFile string
	// UploadDir receives API file uploads.
	UploadDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Analysis: AnalysisDefaults{
			Metric:    getEnvOrDefault("BCALL_METRIC", "manhattan"),
			Threshold: getEnvFloatOrDefault("BCALL_THRESHOLD", 0.1),
			Normalize: getEnvBoolOrDefault("BCALL_NORMALIZE", true),
		},
		Paths: PathConfig{
			DataFile:  getEnvOrDefault("DATA_FILE", ""),
			UploadDir: getEnvOrDefault("UPLOAD_DIR", os.TempDir()),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Persistence reports whether a database is configured.
func (c *Config) Persistence() bool {
	return c.Database.URL != ""
}

// AnalysisConfig builds the default run parameters from the environment.
// Callers layer per-run flags or form values on top of this.
func (c *Config) AnalysisConfig() (bcall.AnalysisConfig, error) {
	cfg := bcall.DefaultConfig()
	metric, err := bcall.ParseMetric(c.Analysis.Metric)
	if err != nil {
		return cfg, errors.Wrap(err, "BCALL_METRIC")
	}
	cfg.Metric = metric
	cfg.Threshold = c.Analysis.Threshold
	cfg.Normalize = c.Analysis.Normalize
	return cfg, nil
}

func validateConfig(config *Config) error {
	switch config.Analysis.Metric {
	case "manhattan", "euclidean", "l1", "l2":
	default:
		return errors.ConfigInvalid("BCALL_METRIC must be manhattan or euclidean")
	}
	if config.Analysis.Threshold < 0 || config.Analysis.Threshold > 1 {
		return errors.ConfigInvalid("BCALL_THRESHOLD must be in [0, 1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
