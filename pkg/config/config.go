package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"-"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"-"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	ScanIntervalMinutes       int           `koanf:"scan_interval_minutes"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	WorkerProcesses           int           `koanf:"worker_processes"`
}

// knownKeys is the set of config keys that can be set via the config file or
// environment variables. Env vars outside this set are ignored so that
// unrelated process environment doesn't leak into the config.
var knownKeys = map[string]struct{}{
	"database_connect_retry_count": {},
	"database_debug":               {},
	"database_file_path":           {},
	"database_max_retries":         {},
	"scan_interval_minutes":        {},
	"server_host":                  {},
	"server_port":                  {},
	"worker_processes":             {},
}

func defaults() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        3,
		ScanIntervalMinutes:       60,
		ServerHost:                "0.0.0.0",
		ServerPort:                3690,
		WorkerProcesses:           2,
	}
}

func New() (*Config, error) {
	cfg := defaults()

	k := koanf.New(".")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "/config/telecast.yaml"
	}
	err := k.Load(file.Provider(configFile), yaml.Parser())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load config file")
	}

	// Environment variables override the config file. Plain names like
	// DATABASE_FILE_PATH map onto the snake_case config keys.
	err = k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := knownKeys[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "load env config")
	}

	err = k.Unmarshal("", cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.DatabaseFilePath == "" {
		return nil, errors.New("missing required config: DATABASE_FILE_PATH (database_file_path)")
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests: in-memory database, local
// bind address, single worker.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.WorkerProcesses = 1
	return cfg
}
