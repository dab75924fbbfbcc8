// Package config handles loading and validation of application configuration
// from environment variables and an optional configuration file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Store backends.
const (
	StoreBackendFile     = "file"
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// Replication backends.
const (
	ReplicationBackendGit = "git"
	ReplicationBackendS3  = "s3"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
	// StaticDir holds index.html and the page assets.
	StaticDir string `mapstructure:"STATIC_DIR" yaml:"static_dir"`
	// TrustedProxies is a list of CIDR ranges or IPs of trusted reverse proxies.
	// If empty, X-Forwarded-For headers are ignored entirely.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// StoreConfig selects the record store backend and its domain limits.
type StoreConfig struct {
	Backend                string `mapstructure:"BACKEND" yaml:"backend"`
	DataDir                string `mapstructure:"DATA_DIR" yaml:"data_dir"`
	MaxVisitors            int    `mapstructure:"MAX_VISITORS" yaml:"max_visitors"`
	DuplicateWindowMinutes int    `mapstructure:"DUPLICATE_WINDOW_MINUTES" yaml:"duplicate_window_minutes"`
	FeedbackMaxLength      int    `mapstructure:"FEEDBACK_MAX_LENGTH" yaml:"feedback_max_length"`
	WriteRetries           int    `mapstructure:"WRITE_RETRIES" yaml:"write_retries"`
}

// DuplicateWindow returns the duplicate-name suppression window.
func (c StoreConfig) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowMinutes) * time.Minute
}

// DatabaseConfig holds PostgreSQL connection details, used by the postgres store backend.
type DatabaseConfig struct {
	Host         string `mapstructure:"HOST" yaml:"host"`
	Port         int    `mapstructure:"PORT" yaml:"port"`
	User         string `mapstructure:"USER" yaml:"user"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	Name         string `mapstructure:"NAME" yaml:"name"`
	SSLMode      string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"MAX_OPEN_CONNS" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"MAX_IDLE_CONNS" yaml:"max_idle_conns"`
	ConnMaxLife  string `mapstructure:"CONN_MAX_LIFE" yaml:"conn_max_life"`
}

// URL returns a postgres:// connection URL suitable for golang-migrate and pgxpool.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details. An empty address disables Redis.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS" yaml:"address"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	DB           int    `mapstructure:"DB" yaml:"db"`
	UseTLS       bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	PoolSize     int    `mapstructure:"POOL_SIZE" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS" yaml:"min_idle_conns"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// RateLimitConfig holds configuration for the per-IP write limiter.
type RateLimitConfig struct {
	// Maximum write requests per window per client IP
	WriteRequestsPerWindow int `mapstructure:"WRITE_REQUESTS_PER_WINDOW" yaml:"write_requests_per_window"`
	// Window duration in seconds for rate limiting
	WindowSeconds int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
}

// GitReplicationConfig configures pushes of the data directory to a Git remote.
type GitReplicationConfig struct {
	Remote      string `mapstructure:"REMOTE" yaml:"remote"`
	Branch      string `mapstructure:"BRANCH" yaml:"branch"`
	Username    string `mapstructure:"USERNAME" yaml:"username"`
	Token       string `mapstructure:"TOKEN" yaml:"token"`
	AuthorName  string `mapstructure:"AUTHOR_NAME" yaml:"author_name"`
	AuthorEmail string `mapstructure:"AUTHOR_EMAIL" yaml:"author_email"`
}

// S3ReplicationConfig configures uploads of the data files to an S3-compatible bucket.
type S3ReplicationConfig struct {
	Endpoint        string `mapstructure:"ENDPOINT" yaml:"endpoint"`
	Region          string `mapstructure:"REGION" yaml:"region"`
	Bucket          string `mapstructure:"BUCKET" yaml:"bucket"`
	Prefix          string `mapstructure:"PREFIX" yaml:"prefix"`
	AccessKeyID     string `mapstructure:"ACCESS_KEY_ID" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"SECRET_ACCESS_KEY" yaml:"secret_access_key"`
}

// ReplicationConfig holds configuration for best-effort backups after each write.
type ReplicationConfig struct {
	Enabled        bool                 `mapstructure:"ENABLED" yaml:"enabled"`
	Backend        string               `mapstructure:"BACKEND" yaml:"backend"`
	TimeoutSeconds int                  `mapstructure:"TIMEOUT_SECONDS" yaml:"timeout_seconds"`
	Git            GitReplicationConfig `mapstructure:"GIT" yaml:"git"`
	S3             S3ReplicationConfig  `mapstructure:"S3" yaml:"s3"`
}

// Timeout returns the per-job replication timeout.
func (c ReplicationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WorkerPoolConfig holds configuration for the background worker pool.
type WorkerPoolConfig struct {
	MaxWorkers             int `mapstructure:"MAX_WORKERS" yaml:"max_workers"`
	QueueSize              int `mapstructure:"QUEUE_SIZE" yaml:"queue_size"`
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
}

// Config aggregates all application configuration sections.
type Config struct {
	LogLevel    string            `mapstructure:"LOG_LEVEL" yaml:"log_level"`
	Server      ServerConfig      `mapstructure:"SERVER" yaml:"server"`
	Store       StoreConfig       `mapstructure:"STORE" yaml:"store"`
	Database    DatabaseConfig    `mapstructure:"DATABASE" yaml:"database"`
	Redis       RedisConfig       `mapstructure:"REDIS" yaml:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
	Replication ReplicationConfig `mapstructure:"REPLICATION" yaml:"replication"`
	WorkerPool  WorkerPoolConfig  `mapstructure:"WORKER_POOL" yaml:"worker_pool"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "3000")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.STATIC_DIR", "public")
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("STORE.BACKEND", StoreBackendFile)
	v.SetDefault("STORE.DATA_DIR", ".")
	v.SetDefault("STORE.MAX_VISITORS", 1000)
	v.SetDefault("STORE.DUPLICATE_WINDOW_MINUTES", 60)
	v.SetDefault("STORE.FEEDBACK_MAX_LENGTH", 500)
	v.SetDefault("STORE.WRITE_RETRIES", 3)
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "guestbook")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_OPEN_CONNS", 5)
	v.SetDefault("DATABASE.MAX_IDLE_CONNS", 1)
	v.SetDefault("DATABASE.CONN_MAX_LIFE", "1h")
	v.SetDefault("REDIS.ADDRESS", "")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 3)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("RATE_LIMIT.WRITE_REQUESTS_PER_WINDOW", 30)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("REPLICATION.ENABLED", false)
	v.SetDefault("REPLICATION.BACKEND", ReplicationBackendGit)
	v.SetDefault("REPLICATION.TIMEOUT_SECONDS", 30)
	v.SetDefault("REPLICATION.GIT.REMOTE", "origin")
	v.SetDefault("REPLICATION.GIT.BRANCH", "main")
	v.SetDefault("REPLICATION.GIT.USERNAME", "")
	v.SetDefault("REPLICATION.GIT.TOKEN", "")
	v.SetDefault("REPLICATION.GIT.AUTHOR_NAME", "guestbook-bot")
	v.SetDefault("REPLICATION.GIT.AUTHOR_EMAIL", "guestbook-bot@users.noreply.github.com")
	v.SetDefault("REPLICATION.S3.ENDPOINT", "")
	v.SetDefault("REPLICATION.S3.REGION", "auto")
	v.SetDefault("REPLICATION.S3.BUCKET", "")
	v.SetDefault("REPLICATION.S3.PREFIX", "guestbook")
	v.SetDefault("REPLICATION.S3.ACCESS_KEY_ID", "")
	v.SetDefault("REPLICATION.S3.SECRET_ACCESS_KEY", "")
	// Replications run one at a time.
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 1)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 100)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)
}

var envBindings = [][2]string{
	{"LOG_LEVEL", "LOG_LEVEL"},
	// Server config
	{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
	{"SERVER.PORT", "PORT"},
	{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
	{"SERVER.VERSION", "VERSION"},
	{"SERVER.STATIC_DIR", "STATIC_DIR"},
	{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
	// Store config
	{"STORE.BACKEND", "STORE_BACKEND"},
	{"STORE.DATA_DIR", "DATA_DIR"},
	{"STORE.MAX_VISITORS", "MAX_VISITORS"},
	{"STORE.DUPLICATE_WINDOW_MINUTES", "DUPLICATE_WINDOW_MINUTES"},
	{"STORE.FEEDBACK_MAX_LENGTH", "FEEDBACK_MAX_LENGTH"},
	{"STORE.WRITE_RETRIES", "STORE_WRITE_RETRIES"},
	// Database config
	{"DATABASE.HOST", "DB_HOST"},
	{"DATABASE.PORT", "DB_PORT"},
	{"DATABASE.USER", "DB_USER"},
	{"DATABASE.PASSWORD", "DB_PASSWORD"},
	{"DATABASE.NAME", "DB_NAME"},
	{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
	// Redis config
	{"REDIS.ADDRESS", "REDIS_ADDRESS"},
	{"REDIS.PASSWORD", "REDIS_PASSWORD"},
	{"REDIS.DB", "REDIS_DB"},
	{"REDIS.USE_TLS", "REDIS_USE_TLS"},
	// Rate limit config
	{"RATE_LIMIT.WRITE_REQUESTS_PER_WINDOW", "RATE_LIMIT_WRITE_REQUESTS_PER_WINDOW"},
	{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
	// Replication config
	{"REPLICATION.ENABLED", "REPLICATION_ENABLED"},
	{"REPLICATION.BACKEND", "REPLICATION_BACKEND"},
	{"REPLICATION.TIMEOUT_SECONDS", "REPLICATION_TIMEOUT_SECONDS"},
	{"REPLICATION.GIT.REMOTE", "GIT_REMOTE"},
	{"REPLICATION.GIT.BRANCH", "GIT_BRANCH"},
	{"REPLICATION.GIT.USERNAME", "GITHUB_USERNAME"},
	{"REPLICATION.GIT.TOKEN", "GITHUB_TOKEN"},
	{"REPLICATION.GIT.AUTHOR_NAME", "GIT_AUTHOR_NAME"},
	{"REPLICATION.GIT.AUTHOR_EMAIL", "GIT_AUTHOR_EMAIL"},
	{"REPLICATION.S3.ENDPOINT", "S3_ENDPOINT"},
	{"REPLICATION.S3.REGION", "S3_REGION"},
	{"REPLICATION.S3.BUCKET", "S3_BUCKET"},
	{"REPLICATION.S3.PREFIX", "S3_PREFIX"},
	{"REPLICATION.S3.ACCESS_KEY_ID", "S3_ACCESS_KEY_ID"},
	{"REPLICATION.S3.SECRET_ACCESS_KEY", "S3_SECRET_ACCESS_KEY"},
	// WorkerPool config
	{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
	{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
	{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, reads CONFIG_FILE when set, unmarshals the
// configuration, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	if err := v.BindEnv("CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("failed to bind CONFIG_FILE: %w", err)
	}
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		log.Infow("Configuration file loaded", "path", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"server_port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"data_dir", cfg.Store.DataDir,
		"redis_enabled", cfg.Redis.Enabled(),
		"replication_enabled", cfg.Replication.Enabled,
		"replication_backend", cfg.Replication.Backend,
	)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	log := logger.GetLogger()

	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if err := validateStoreConfig(cfg); err != nil {
		return err
	}

	if cfg.Redis.Password == "" && cfg.Redis.UseTLS {
		log.Warn("Redis password is not set, but TLS is enabled. Ensure this is correct for your Redis provider.")
	}

	if cfg.RateLimit.WriteRequestsPerWindow <= 0 {
		return fmt.Errorf("rate limit write requests per window must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}

	if err := validateReplicationConfig(cfg, log); err != nil {
		return err
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}

	return nil
}

func validateStoreConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreBackendFile:
		if cfg.Store.DataDir == "" {
			return fmt.Errorf("store data dir is required for the file backend")
		}
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Store.MaxVisitors <= 0 {
		return fmt.Errorf("store max visitors must be positive")
	}
	if cfg.Store.DuplicateWindowMinutes < 0 {
		return fmt.Errorf("store duplicate window must not be negative")
	}
	if cfg.Store.FeedbackMaxLength <= 0 {
		return fmt.Errorf("store feedback max length must be positive")
	}
	if cfg.Store.WriteRetries < 0 {
		return fmt.Errorf("store write retries must not be negative")
	}
	return nil
}

// validateReplicationConfig checks presence, not validity, of the backend
// credentials. A bad token only surfaces as a logged push failure.
func validateReplicationConfig(cfg *Config, log *zap.SugaredLogger) error {
	rc := cfg.Replication
	if !rc.Enabled {
		log.Info("Replication is disabled")
		return nil
	}
	if rc.TimeoutSeconds <= 0 {
		return fmt.Errorf("replication timeout must be positive")
	}
	if cfg.Store.Backend != StoreBackendFile {
		log.Warnw("Replication only copies data files; it has nothing to do for this store backend",
			"store_backend", cfg.Store.Backend)
	}

	switch rc.Backend {
	case ReplicationBackendGit:
		if rc.Git.Username == "" {
			return fmt.Errorf("git username is required when replication is enabled")
		}
		if rc.Git.Token == "" {
			return fmt.Errorf("git token is required when replication is enabled")
		}
		if rc.Git.Remote == "" || rc.Git.Branch == "" {
			return fmt.Errorf("git remote and branch are required when replication is enabled")
		}
		log.Infow("Git replication configured",
			"remote", rc.Git.Remote,
			"branch", rc.Git.Branch,
			"token", logger.MaskSensitiveString(rc.Git.Token, 4, 2))
	case ReplicationBackendS3:
		if rc.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required when replication is enabled")
		}
		if rc.S3.AccessKeyID == "" || rc.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3 access key id and secret access key are required when replication is enabled")
		}
	default:
		return fmt.Errorf("unknown replication backend %q", rc.Backend)
	}
	return nil
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
