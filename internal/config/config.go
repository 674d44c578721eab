package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	OCR    OCRConfig
	Queue  QueueConfig
	Email  EmailConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	ResultsBucket string `mapstructure:"results_bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// RemoteEngineConfig holds settings for one HTTP OCR sidecar.
type RemoteEngineConfig struct {
	Name        string `mapstructure:"name"`
	BaseURL     string `mapstructure:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// OCRConfig holds OCR engine and retry settings.
type OCRConfig struct {
	Primary   RemoteEngineConfig `mapstructure:"primary"`
	Secondary RemoteEngineConfig `mapstructure:"secondary"`

	TesseractEnabled bool   `mapstructure:"tesseract_enabled"`
	TesseractBin     string `mapstructure:"tesseract_bin"`
	TesseractLang    string `mapstructure:"tesseract_lang"`

	// Retry policy around the selector call. Only the OCR step is retried;
	// extraction and validation are pure and deterministic.
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// Engines returns the configured remote engines, skipping unset slots.
func (o *OCRConfig) Engines() []RemoteEngineConfig {
	var out []RemoteEngineConfig
	if o.Primary.BaseURL != "" {
		out = append(out, o.Primary)
	}
	if o.Secondary.BaseURL != "" {
		out = append(out, o.Secondary)
	}
	return out
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
}

// EmailConfig holds review alert delivery settings.
type EmailConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	FromAddress   string `mapstructure:"from_address"`
	FromName      string `mapstructure:"from_name"`
	ReviewAddress string `mapstructure:"review_address"`
	DashboardURL  string `mapstructure:"dashboard_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the VOLTSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "voltscan")
	v.SetDefault("db.password", "voltscan_secret")
	v.SetDefault("db.name", "voltscan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "voltscan-uploads")
	v.SetDefault("s3.results_bucket", "voltscan-results")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)

	// OCR defaults
	v.SetDefault("ocr.primary.name", "paddle")
	v.SetDefault("ocr.primary.base_url", "http://localhost:8001")
	v.SetDefault("ocr.primary.timeout_secs", 60)
	v.SetDefault("ocr.secondary.name", "")
	v.SetDefault("ocr.secondary.base_url", "")
	v.SetDefault("ocr.secondary.timeout_secs", 60)
	v.SetDefault("ocr.tesseract_enabled", true)
	v.SetDefault("ocr.tesseract_bin", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "eng")
	v.SetDefault("ocr.max_attempts", 3)
	v.SetDefault("ocr.retry_backoff", "2s")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.concurrency", 5)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@voltscan.io")
	v.SetDefault("email.from_name", "Voltscan")
	v.SetDefault("email.review_address", "")
	v.SetDefault("email.dashboard_url", "http://localhost:3000")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
