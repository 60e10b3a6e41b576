package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Adapter types selecting the database connection flavor.
const (
	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"
)

const (
	minJWTSecretLength = 24
	defaultPort        = 8080
	defaultLockTimeout = 5 * time.Second
	defaultSessionTTL  = 7 * 24 * time.Hour
)

var (
	ErrReadingConfigFileFailed = errors.New("reading config file failed")
	ErrParsingConfigFileFailed = errors.New("parsing config file failed")
	ErrLoadingDotEnvFailed     = errors.New("loading .env file failed")
	ErrInvalidEnvValue         = errors.New("invalid environment value")
	ErrDatabaseURLMissing      = errors.New("DATABASE_URL is missing")
	ErrUnknownAdapterType      = errors.New("unknown DB_ADAPTER")
	ErrAuthNotConfigured       = errors.New("AUTH_USER and AUTH_PASSWORD must be set")
	ErrJWTSecretTooShort       = errors.New("AUTH_JWT_SECRET is missing or too short")
)

// Config is the complete configuration of the circulation desk.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	OTel     OTelConfig     `yaml:"otel"`
	AppEnv   string         `yaml:"app_env"`
}

type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	ReplicaURL  string        `yaml:"replica_url"`
	Adapter     string        `yaml:"adapter"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Version string `yaml:"version"`
}

type AuthConfig struct {
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	JWTSecret   string        `yaml:"jwt_secret"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	BackupToken string        `yaml:"backup_token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP gRPC collector (host:port). Without it spans and metrics stay in-process.
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Adapter:     AdapterPGXPool,
			LockTimeout: defaultLockTimeout,
		},
		HTTP:   HTTPConfig{Port: defaultPort, Version: "dev"},
		Auth:   AuthConfig{SessionTTL: defaultSessionTTL},
		Log:    LogConfig{Level: "info", Format: "json"},
		OTel:   OTelConfig{ServiceName: "librarydesk"},
		AppEnv: "development",
	}
}

// Load reads the YAML file at path (skipped when path is empty), then .env from the working
// directory if present, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadingConfigFileFailed, err)
		}

		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Join(ErrParsingConfigFileFailed, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Join(ErrLoadingDotEnvFailed, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, target *string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}

	str("DATABASE_URL", &c.Database.URL)
	str("DATABASE_REPLICA_URL", &c.Database.ReplicaURL)
	str("DB_ADAPTER", &c.Database.Adapter)
	str("AUTH_USER", &c.Auth.User)
	str("AUTH_JWT_SECRET", &c.Auth.JWTSecret)
	str("BACKUP_TOKEN", &c.Auth.BackupToken)
	str("APP_ENV", &c.AppEnv)
	str("APP_VERSION", &c.HTTP.Version)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("OTEL_SERVICE_NAME", &c.OTel.ServiceName)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTel.Endpoint)

	// Passwords may legitimately start or end with spaces.
	if value, ok := lookup("AUTH_PASSWORD"); ok && value != "" {
		c.Auth.Password = value
	}

	if value, ok := lookup("DB_LOCK_TIMEOUT"); ok && value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: DB_LOCK_TIMEOUT=%q: %w", ErrInvalidEnvValue, value, err)
		}

		c.Database.LockTimeout = timeout
	}

	if value, ok := lookup("PORT"); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidEnvValue, value)
		}

		c.HTTP.Port = port
	}

	if value, ok := lookup("OTEL_ENABLED"); ok && value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: OTEL_ENABLED=%q: %w", ErrInvalidEnvValue, value, err)
		}

		c.OTel.Enabled = enabled
	}

	if value, ok := lookup("OTEL_EXPORTER_OTLP_INSECURE"); ok && value != "" {
		insecure, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: OTEL_EXPORTER_OTLP_INSECURE=%q: %w", ErrInvalidEnvValue, value, err)
		}

		c.OTel.Insecure = insecure
	}

	return nil
}

// Validate checks what every command needs: a database to talk to.
func (c Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, ErrDatabaseURLMissing)
	}

	switch c.Database.Adapter {
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLX:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownAdapterType, c.Database.Adapter))
	}

	if c.Database.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: lock timeout must be positive", ErrInvalidEnvValue))
	}

	return errors.Join(errs...)
}

// ValidateServer additionally checks the settings the HTTP server cannot run without.
func (c Config) ValidateServer() error {
	errs := []error{c.Validate()}

	if c.Auth.User == "" || c.Auth.Password == "" {
		errs = append(errs, ErrAuthNotConfigured)
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, ErrJWTSecretTooShort)
	}

	return errors.Join(errs...)
}

// IsProduction reports whether session cookies must be marked secure.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
