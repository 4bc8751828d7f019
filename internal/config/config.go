package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Tracking   TrackingConfig
	Serve      ServeConfig
	API        APIConfig
	Database   DatabaseConfig
	Kubernetes KubernetesConfig
	Logger     LoggerConfig
}

type TrackingConfig struct {
	URI     string
	Timeout time.Duration
}

type ServeConfig struct {
	Host       string
	Port       int
	EnvManager string
	Program    string
	Target     string // local or kserve
}

type APIConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether the registration ledger has a database.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	DefaultNS      string
	ReadyTimeout   time.Duration
	PollInterval   time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

const (
	ServeTargetLocal  = "local"
	ServeTargetKServe = "kserve"
)

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("TRACKING_URI", "http://127.0.0.1:8080")
	v.SetDefault("TRACKING_TIMEOUT", "30s")
	v.SetDefault("SERVE_HOST", "0.0.0.0")
	v.SetDefault("SERVE_PORT", 5001)
	v.SetDefault("SERVE_ENV_MANAGER", "local")
	v.SetDefault("SERVE_PROGRAM", "mlflow")
	v.SetDefault("SERVE_TARGET", ServeTargetLocal)
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8090)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_CONNS", 4)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("KUBERNETES_ENABLED", false)
	v.SetDefault("KUBERNETES_IN_CLUSTER", false)
	v.SetDefault("KUBERNETES_KUBECONFIG", "")
	v.SetDefault("KUBERNETES_NAMESPACE", "model-serving")
	v.SetDefault("KUBERNETES_READY_TIMEOUT", "10m")
	v.SetDefault("KUBERNETES_POLL_INTERVAL", "5s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "text")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Tracking: TrackingConfig{
			URI:     v.GetString("TRACKING_URI"),
			Timeout: parseDuration(v.GetString("TRACKING_TIMEOUT"), 30*time.Second),
		},
		Serve: ServeConfig{
			Host:       v.GetString("SERVE_HOST"),
			Port:       v.GetInt("SERVE_PORT"),
			EnvManager: v.GetString("SERVE_ENV_MANAGER"),
			Program:    v.GetString("SERVE_PROGRAM"),
			Target:     v.GetString("SERVE_TARGET"),
		},
		API: APIConfig{
			Host: v.GetString("API_HOST"),
			Port: v.GetInt("API_PORT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxConns:        v.GetInt("DATABASE_MAX_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("KUBERNETES_ENABLED"),
			InCluster:      v.GetBool("KUBERNETES_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KUBERNETES_KUBECONFIG"),
			DefaultNS:      v.GetString("KUBERNETES_NAMESPACE"),
			ReadyTimeout:   parseDuration(v.GetString("KUBERNETES_READY_TIMEOUT"), 10*time.Minute),
			PollInterval:   parseDuration(v.GetString("KUBERNETES_POLL_INTERVAL"), 5*time.Second),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
