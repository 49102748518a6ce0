// Package config loads service settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

type Config struct {
	Env             string
	Port            int
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	Database    Database
	ObjectStore ObjectStore
	Metrics     Metrics
	Logging     Logging
}

type Database struct {
	Dialect        string
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	ConnectTimeout time.Duration
	RetryMax       int
	RetryTimeout   time.Duration
}

type ObjectStore struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

type Metrics struct {
	StatsDHost   string
	StatsDPort   int
	StatsDPrefix string
	ListenAddr   string
}

type Logging struct {
	Level        string
	Format       string
	Dir          string
	LogGroup     string
	StreamPrefix string
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// CloudWatchEnabled reports whether logs are shipped to CloudWatch.
func (c *Config) CloudWatchEnabled() bool {
	return c.Production() && c.ObjectStore.Region != ""
}

// StatsDAddr returns host:port of the StatsD collector, or "" when disabled.
func (m Metrics) StatsDAddr() string {
	if m.StatsDHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", m.StatsDHost, m.StatsDPort)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("max_upload_bytes", 0)

	v.SetDefault("db_dialect", DialectMySQL)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 0)
	v.SetDefault("db_name", "")
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_connect_timeout", 3*time.Second)
	v.SetDefault("db_retry_max", 3)
	v.SetDefault("db_retry_timeout", 5*time.Second)

	v.SetDefault("s3_endpoint", "https://s3.amazonaws.com")
	v.SetDefault("aws_region", "")
	v.SetDefault("aws_s3_bucket_name", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("object_timeout", 5*time.Minute)

	v.SetDefault("statsd_host", "")
	v.SetDefault("statsd_port", 8125)
	v.SetDefault("statsd_prefix", "WebApp.")
	v.SetDefault("metrics_addr", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("cloudwatch_log_group_name", "csye6225-webapp-logs")
	v.SetDefault("cloudwatch_log_stream_prefix", "app")
}

// Load reads the given env files (".env" when none are given) into the
// process environment without overriding variables that are already set,
// then builds and validates the configuration.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Env:             v.GetString("app_env"),
		Port:            v.GetInt("port"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		MaxUploadBytes:  v.GetInt64("max_upload_bytes"),
		Database: Database{
			Dialect:        v.GetString("db_dialect"),
			Host:           v.GetString("db_host"),
			Port:           v.GetInt("db_port"),
			Name:           v.GetString("db_name"),
			User:           v.GetString("db_user"),
			Password:       v.GetString("db_password"),
			ConnectTimeout: v.GetDuration("db_connect_timeout"),
			RetryMax:       v.GetInt("db_retry_max"),
			RetryTimeout:   v.GetDuration("db_retry_timeout"),
		},
		ObjectStore: ObjectStore{
			Endpoint:  v.GetString("s3_endpoint"),
			Region:    v.GetString("aws_region"),
			Bucket:    v.GetString("aws_s3_bucket_name"),
			AccessKey: v.GetString("s3_access_key"),
			SecretKey: v.GetString("s3_secret_key"),
			Timeout:   v.GetDuration("object_timeout"),
		},
		Metrics: Metrics{
			StatsDHost:   v.GetString("statsd_host"),
			StatsDPort:   v.GetInt("statsd_port"),
			StatsDPrefix: v.GetString("statsd_prefix"),
			ListenAddr:   v.GetString("metrics_addr"),
		},
		Logging: Logging{
			Level:        v.GetString("log_level"),
			Format:       v.GetString("log_format"),
			Dir:          v.GetString("log_dir"),
			LogGroup:     v.GetString("cloudwatch_log_group_name"),
			StreamPrefix: v.GetString("cloudwatch_log_stream_prefix"),
		},
	}

	if cfg.Database.Port == 0 {
		switch cfg.Database.Dialect {
		case DialectPostgres:
			cfg.Database.Port = 5432
		default:
			cfg.Database.Port = 3306
		}
	}
	return cfg
}

// Validate checks every field and reports all problems together.
func (c *Config) Validate() error {
	v := NewValidator()

	v.Enum("APP_ENV", c.Env, []string{EnvDevelopment, EnvProduction, "test"})
	v.Port("PORT", c.Port)
	v.Positive("SHUTDOWN_TIMEOUT", int64(c.ShutdownTimeout))
	v.NonNegative("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	v.Enum("DB_DIALECT", c.Database.Dialect, []string{DialectMySQL, DialectPostgres})
	v.Required("DB_HOST", c.Database.Host)
	v.Port("DB_PORT", c.Database.Port)
	v.Required("DB_NAME", c.Database.Name)
	v.Required("DB_USER", c.Database.User)
	v.Positive("DB_CONNECT_TIMEOUT", int64(c.Database.ConnectTimeout))
	v.Positive("DB_RETRY_MAX", int64(c.Database.RetryMax))
	v.Positive("DB_RETRY_TIMEOUT", int64(c.Database.RetryTimeout))

	v.Required("S3_ENDPOINT", c.ObjectStore.Endpoint)
	v.Required("AWS_S3_BUCKET_NAME", c.ObjectStore.Bucket)
	v.Positive("OBJECT_TIMEOUT", int64(c.ObjectStore.Timeout))
	if (c.ObjectStore.AccessKey == "") != (c.ObjectStore.SecretKey == "") {
		v.AddError("S3_ACCESS_KEY", "S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}

	if c.Metrics.StatsDHost != "" {
		v.Port("STATSD_PORT", c.Metrics.StatsDPort)
	}

	v.Enum("LOG_LEVEL", c.Logging.Level, []string{"debug", "info", "warn", "error"})
	v.Enum("LOG_FORMAT", c.Logging.Format, []string{"text", "json"})
	if c.CloudWatchEnabled() {
		v.Required("CLOUDWATCH_LOG_GROUP_NAME", c.Logging.LogGroup)
	}

	return v.Err()
}
