// Package config loads and validates the catalog API configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the SPIGET_ prefix (e.g.,
// SPIGET_DATABASE_HOST overrides database.host in the YAML), so the same binary
// runs with a config.yaml in local development and with pure environment
// variables in containerized deployments.
//
// The node role (server.mode) is read once at process start and never mutated
// at runtime; every component that needs role-aware delegation reads it through
// ServerConfig.IsMaster().
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Node roles. Exactly one node in a deployment runs as master; every other
// node redirects master-only operations (proxy downloads, update requests)
// to it.
const (
	ModeMaster = "master"
	ModeMirror = "mirror"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server and node-role configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	Mode         string        `mapstructure:"mode"`
	MasterURL    string        `mapstructure:"master_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// IsMaster reports whether this node is the deployment master. The result is
// fixed for the process lifetime.
func (s *ServerConfig) IsMaster() bool {
	return s.Mode == ModeMaster
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration. ReplicaHost is
// optional; when set, catalog reads are routed to the replica pool
// ("prefer secondary" consistency).
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	ReplicaHost        string `mapstructure:"replica_host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// GetDSN returns the PostgreSQL connection string for the primary
func (c *DatabaseConfig) GetDSN() string {
	return c.dsnFor(c.Host)
}

// GetReplicaDSN returns the connection string for the read replica, or ""
// when no replica is configured.
func (c *DatabaseConfig) GetReplicaDSN() string {
	if c.ReplicaHost == "" {
		return ""
	}
	return c.dsnFor(c.ReplicaHost)
}

func (c *DatabaseConfig) dsnFor(host string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// UpstreamConfig describes the origin marketplace this catalog mirrors.
// SiteURL is the human-facing site (go-to-page redirects, canonical download
// URLs), APIURL the origin's JSON API used for best-effort enrichment, and
// CDNURL the file CDN serving non-external resource binaries.
type UpstreamConfig struct {
	SiteURL         string        `mapstructure:"site_url"`
	APIURL          string        `mapstructure:"api_url"`
	CDNURL          string        `mapstructure:"cdn_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// CacheConfig holds the optional Redis cache settings used for upstream
// enrichment payloads.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// PaginationConfig holds list-endpoint paging defaults. MaxSize is a hard
// clamp; requests asking for more get MaxSize.
type PaginationConfig struct {
	DefaultSize int `mapstructure:"default_size"`
	MaxSize     int `mapstructure:"max_size"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
	TLS  TLSConfig  `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// ProfilingConfig holds pprof side-port configuration
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// AutomaticEnv() does not cooperate with Unmarshal on nested structs, so every
// key is bound by hand. viper.BindEnv only errors when called with zero keys;
// any error here indicates a programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.mode",
		"server.master_url",
		"server.user_agent",
		"server.read_timeout",
		"server.write_timeout",

		// Database
		"database.host",
		"database.replica_host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Upstream origin
		"upstream.site_url",
		"upstream.api_url",
		"upstream.cdn_url",
		"upstream.request_timeout",
		"upstream.download_timeout",

		// Cache
		"cache.enabled",
		"cache.addr",
		"cache.password",
		"cache.db",
		"cache.ttl",

		// Pagination
		"pagination.default_size",
		"pagination.max_size",

		// Security
		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Logging
		"logging.level",
		"logging.format",

		// Telemetry
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
		"telemetry.profiling.enabled",
		"telemetry.profiling.port",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/spiget")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; defaults and environment variables apply.
	}

	v.SetEnvPrefix("SPIGET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Watch the config file for edits. Only the logging level is re-read on
	// change; everything else (node role included) stays fixed for the
	// process lifetime.
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config file changed, re-reading log level", "file", e.Name, "level", v.GetString("logging.level"))
		})
		v.WatchConfig()
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	// Single-node deployments are their own master; multi-node deployments
	// set mode=mirror plus master_url on every non-master node.
	v.SetDefault("server.mode", ModeMaster)
	v.SetDefault("server.master_url", "")
	v.SetDefault("server.user_agent", "spiget-api")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.replica_host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "spiget")
	v.SetDefault("database.user", "spiget")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	// Upstream origin defaults
	v.SetDefault("upstream.site_url", "https://www.spigotmc.org")
	v.SetDefault("upstream.api_url", "https://api.spigotmc.org")
	v.SetDefault("upstream.cdn_url", "https://cdn.spiget.org/file/spiget-resources")
	v.SetDefault("upstream.request_timeout", "10s")
	v.SetDefault("upstream.download_timeout", "10m")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "5m")

	// Pagination defaults
	v.SetDefault("pagination.default_size", 10)
	v.SetDefault("pagination.max_size", 100)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.tls.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.port", 6060)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.Mode != ModeMaster && c.Server.Mode != ModeMirror {
		return fmt.Errorf("invalid server mode: %s (must be master or mirror)", c.Server.Mode)
	}
	if c.Server.Mode != ModeMaster && c.Server.MasterURL == "" {
		return fmt.Errorf("server.master_url is required when server.mode is not master")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	if c.Upstream.SiteURL == "" {
		return fmt.Errorf("upstream.site_url is required")
	}
	if c.Upstream.CDNURL == "" {
		return fmt.Errorf("upstream.cdn_url is required")
	}

	if c.Pagination.DefaultSize < 1 {
		return fmt.Errorf("pagination.default_size must be positive")
	}
	if c.Pagination.MaxSize < c.Pagination.DefaultSize {
		return fmt.Errorf("pagination.max_size must be >= pagination.default_size")
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when cache is enabled")
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}
