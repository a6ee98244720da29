package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.4.0"

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	API    APIConfig
}

// CommonConfig contains configuration shared between the API server and CLI tools.
type CommonConfig struct {
	// Version of the common config.
	Version     int         `koanf:"version"`
	Debug       Debug       `koanf:"debug"`
	Retry       Retry       `koanf:"retry"`
	PostgreSQL  PostgreSQL  `koanf:"postgresql"`
	Redis       Redis       `koanf:"redis"`
	Endorsement Endorsement `koanf:"endorsement"`
	Votes       Votes       `koanf:"votes"`
	Cache       Cache       `koanf:"cache"`
	Views       Views       `koanf:"views"`
	Telemetry   Telemetry   `koanf:"telemetry"`
}

// APIConfig contains REST server configuration.
type APIConfig struct {
	// Version of the api config.
	Version   int       `koanf:"version"`
	Server    Server    `koanf:"server"`
	RateLimit RateLimit `koanf:"rate_limit"`
	ClientIP  ClientIP  `koanf:"client_ip"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Retry configures how startup connections are retried.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Endorsement configures the endorsement engine.
type Endorsement struct {
	// Points awarded per endorsement type, keyed by type name.
	// Types missing from the map keep their default points.
	Points map[string]int32 `koanf:"points"`
	// Endorsement types callers are not allowed to use.
	DisabledTypes []string `koanf:"disabled_types"`
	// Upper bound on the absolute value of an explicit points override.
	MaxPoints int32 `koanf:"max_points"`
	// Attempts made before contention is reported to the caller.
	MaxAttempts int `koanf:"max_attempts"`
}

// Votes configures the counter aggregator.
type Votes struct {
	// Attempts made before contention is reported to the caller.
	MaxAttempts int `koanf:"max_attempts"`
}

// Cache configures the Redis read-through cache for bias popovers.
type Cache struct {
	Enabled bool `koanf:"enabled"`
	// Popover entry lifetime in seconds.
	PopoverTTL int `koanf:"popover_ttl"`
}

// Views configures materialized view maintenance.
type Views struct {
	// Minutes after which the leaderboard is refreshed on read.
	LeaderboardStale int `koanf:"leaderboard_stale"`
}

// Telemetry configures trace export.
type Telemetry struct {
	// Uptrace DSN. Tracing export is disabled when empty.
	UptraceDSN     string `koanf:"uptrace_dsn"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// Read timeout in milliseconds.
	ReadTimeout int `koanf:"read_timeout"`
	// Write timeout in milliseconds.
	WriteTimeout int `koanf:"write_timeout"`
	// Graceful shutdown timeout in milliseconds.
	ShutdownTimeout int `koanf:"shutdown_timeout"`
}

// RateLimit configures per-client throttling of write endpoints.
type RateLimit struct {
	Enabled bool `koanf:"enabled"`
	// Sustained requests per second allowed for one client.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Requests a client may burst above the sustained rate.
	BurstSize int `koanf:"burst_size"`
}

// ClientIP configures how the caller address is derived.
type ClientIP struct {
	// CIDRs of proxies whose forwarding headers are trusted.
	TrustedProxies []string `koanf:"trusted_proxies"`
	// Headers read, in order, when the peer is a trusted proxy.
	Headers []string `koanf:"headers"`
}

// configFiles lists the files every process loads.
var configFiles = []string{"common", "api"} //nolint:gochecknoglobals // -

// LoadConfig loads the configuration from the first config path holding each file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadConfigFrom([]string{
		".influence",
		filepath.Join(homeDir, ".influence", "config"),
		"/etc/influence/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadConfigFrom loads the configuration searching the given paths in order.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := filepath.Join(path, configName+".toml")
			if _, err := os.Stat(configPath); err != nil {
				continue
			}

			// Nest each file under its own key so sections cannot collide
			fileConf := koanf.New(".")
			if err := fileConf.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, "", fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			if err := k.Set(configName, fileConf.Raw()); err != nil {
				return nil, "", fmt.Errorf("failed to merge %s: %w", configPath, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	config := Config{
		Common: defaultCommon(),
		API:    defaultAPI(),
	}
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// defaultCommon returns the values used for keys a config file leaves out.
func defaultCommon() CommonConfig {
	return CommonConfig{
		Debug: Debug{
			LogLevel:      "info",
			MaxLogsToKeep: 10,
			MaxLogLines:   10000,
		},
		Retry: Retry{
			MaxRetries: 5,
			Delay:      500,
			MaxDelay:   5000,
		},
		PostgreSQL: PostgreSQL{
			Host:         "localhost",
			Port:         5432,
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			MaxLifetime:  30,
			MaxIdleTime:  10,
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		Endorsement: Endorsement{
			MaxPoints:   10,
			MaxAttempts: 3,
		},
		Votes: Votes{
			MaxAttempts: 3,
		},
		Cache: Cache{
			PopoverTTL: 300,
		},
		Views: Views{
			LeaderboardStale: 5,
		},
		Telemetry: Telemetry{
			ServiceName: "influence",
		},
	}
}

// defaultAPI returns the values used for keys api.toml leaves out.
func defaultAPI() APIConfig {
	return APIConfig{
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     5000,
			WriteTimeout:    10000,
			ShutdownTimeout: 30000,
		},
		RateLimit: RateLimit{
			Enabled:           true,
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
		ClientIP: ClientIP{
			Headers: []string{"X-Forwarded-For", "X-Real-IP"},
		},
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/biasnet/influence/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
