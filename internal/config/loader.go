package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/evalworkshop")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.ExpiryHours = v.GetInt("jwt_expiry_hours")
	cfg.JWT.Issuer = v.GetString("jwt_issuer")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")

	// Sampling
	cfg.Sampling.Seed = v.GetInt64("sampling_seed")

	// Intake
	cfg.Intake.RequestTimeoutSeconds = v.GetInt("intake_request_timeout_seconds")
	cfg.Intake.MaxTraces = v.GetInt("intake_max_traces")

	// Log
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.Debug = v.GetBool("sentry_debug")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8000)
	v.SetDefault("server_env", "development")

	// PostgreSQL
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "evalworkshop")
	v.SetDefault("postgres_password", "evalworkshop")
	v.SetDefault("postgres_db", "evalworkshop")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 10)
	v.SetDefault("postgres_min_conns", 2)

	// Redis
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_db", 0)

	// MinIO
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "workshop-exports")

	// JWT
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("jwt_expiry_hours", 24)
	v.SetDefault("jwt_issuer", "evalworkshop")

	// Worker
	v.SetDefault("worker_concurrency", 10)

	// Sampling: 0 means seed from the clock at startup
	v.SetDefault("sampling_seed", 0)

	// Intake
	v.SetDefault("intake_request_timeout_seconds", 30)
	v.SetDefault("intake_max_traces", 100)

	// Log
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_sample_rate", 1.0)
}
