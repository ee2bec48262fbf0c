package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Persistence PersistenceConfig
	Federation  FederationConfig
	Bridge      BridgeConfig
	Tracing     TracingConfig
}

// ServerConfig contains admin HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// PersistenceConfig contains durable storage configuration
type PersistenceConfig struct {
	Type       string // "memory", "badger"
	DataDir    string
	BackupDir  string
	SyncWrites bool
}

// FederationConfig contains federation client configuration
type FederationConfig struct {
	// Network the federation is expected to run on: bitcoin, testnet,
	// signet or regtest. Joining a federation on any other network fails.
	Network string

	// GatewayRefreshInterval is how often the background loop refreshes
	// the lightning gateway cache.
	GatewayRefreshInterval time.Duration

	// GatewayCacheTTL bounds how long a cached gateway registry is
	// considered fresh.
	GatewayCacheTTL time.Duration
}

// BridgeConfig contains UI bridge channel configuration
type BridgeConfig struct {
	BufferSize int
}

// TracingConfig contains OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRatio  float64
	InsecureConn   bool
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnvString("FEDBRIDGE_HOST", ""),
			Port: getEnvInt("FEDBRIDGE_PORT", 8999),
		},
		Log: LogConfig{
			Level:  getEnvString("FEDBRIDGE_LOG_LEVEL", "info"),
			Format: getEnvString("FEDBRIDGE_LOG_FORMAT", "text"),
		},
		Persistence: PersistenceConfig{
			Type:       getEnvString("FEDBRIDGE_PERSISTENCE_TYPE", "badger"),
			DataDir:    getEnvString("FEDBRIDGE_DATA_DIR", "./data"),
			BackupDir:  getEnvString("FEDBRIDGE_BACKUP_DIR", "./backups"),
			SyncWrites: getEnvBool("FEDBRIDGE_SYNC_WRITES", true),
		},
		Federation: FederationConfig{
			Network:                getEnvString("FEDBRIDGE_NETWORK", "signet"),
			GatewayRefreshInterval: getEnvDuration("FEDBRIDGE_GATEWAY_REFRESH_INTERVAL", 5*time.Minute),
			GatewayCacheTTL:        getEnvDuration("FEDBRIDGE_GATEWAY_CACHE_TTL", 15*time.Minute),
		},
		Bridge: BridgeConfig{
			BufferSize: getEnvInt("FEDBRIDGE_BRIDGE_BUFFER", 64),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("FEDBRIDGE_TRACING_ENABLED", false),
			Endpoint:       getEnvString("FEDBRIDGE_TRACING_ENDPOINT", "otel-collector:4318"),
			ServiceName:    getEnvString("FEDBRIDGE_TRACING_SERVICE_NAME", "fedbridge"),
			ServiceVersion: getEnvString("FEDBRIDGE_TRACING_SERVICE_VERSION", "1.0.0"),
			Environment:    getEnvString("FEDBRIDGE_TRACING_ENVIRONMENT", "development"),
			SamplingRatio:  getEnvFloat("FEDBRIDGE_TRACING_SAMPLING_RATIO", 1.0),
			InsecureConn:   getEnvBool("FEDBRIDGE_TRACING_INSECURE", true),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}

	switch c.Persistence.Type {
	case "memory", "badger":
	default:
		return fmt.Errorf("invalid persistence type: %s (must be memory or badger)", c.Persistence.Type)
	}

	switch c.Federation.Network {
	case "bitcoin", "testnet", "signet", "regtest":
	default:
		return fmt.Errorf("invalid network: %s (must be bitcoin, testnet, signet or regtest)", c.Federation.Network)
	}

	if c.Bridge.BufferSize <= 0 {
		return fmt.Errorf("invalid bridge buffer size: %d (must be positive)", c.Bridge.BufferSize)
	}

	if c.Federation.GatewayRefreshInterval <= 0 {
		return fmt.Errorf("invalid gateway refresh interval: %s", c.Federation.GatewayRefreshInterval)
	}

	return nil
}

// Address returns the admin server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
