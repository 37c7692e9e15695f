package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Переменные окружения, которые перекрывают значения из файла (секреты)
const (
	EnvDBPassword = "PARKING_DB_PASSWORD"
	EnvJWTSecret  = "PARKING_JWT_SECRET"
	EnvRedisAddr  = "PARKING_REDIS_ADDR"
	EnvHTTPPort   = "PARKING_HTTP_PORT"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Auth      AuthConfig      `toml:"auth"`
	Booking   BookingConfig   `toml:"booking"`
	Completer CompleterConfig `toml:"completer"`
	Redis     RedisConfig     `toml:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`  // секунды
	WriteTimeout    int `toml:"write_timeout"` // секунды
	IdleTimeout     int `toml:"idle_timeout"`  // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	LockTimeoutMs   int    `toml:"lock_timeout_ms"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LockTimeout таймаут ожидания блокировки строки
func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMs) * time.Millisecond
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// AuthConfig параметры проверки токенов identity provider
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"` // пусто - issuer не проверяется
}

// BookingConfig правила бронирования
type BookingConfig struct {
	MinDurationMinutes       int `toml:"min_duration_minutes"`
	MaxDurationMinutes       int `toml:"max_duration_minutes"`
	MaxAdvanceDays           int `toml:"max_advance_days"`
	CancellationGraceMinutes int `toml:"cancellation_grace_minutes"`
	CurrencyMinorUnits       int `toml:"currency_minor_units"`
	MaxAttempts              int `toml:"max_attempts"`
	RetryBackoffMs           int `toml:"retry_backoff_ms"`
}

func (b BookingConfig) MinDuration() time.Duration {
	return time.Duration(b.MinDurationMinutes) * time.Minute
}

func (b BookingConfig) MaxDuration() time.Duration {
	return time.Duration(b.MaxDurationMinutes) * time.Minute
}

func (b BookingConfig) MaxAdvance() time.Duration {
	return time.Duration(b.MaxAdvanceDays) * 24 * time.Hour
}

func (b BookingConfig) CancellationGrace() time.Duration {
	return time.Duration(b.CancellationGraceMinutes) * time.Minute
}

func (b BookingConfig) RetryBackoff() time.Duration {
	return time.Duration(b.RetryBackoffMs) * time.Millisecond
}

// CompleterConfig фоновое завершение прошедших бронирований
type CompleterConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	BatchSize       int  `toml:"batch_size"`
}

func (c CompleterConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RedisConfig кэш списка слотов
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// RateLimitConfig ограничение частоты попыток бронирования на пользователя
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Load загружает конфигурацию из TOML файла.
// Перед чтением подгружает .env (если есть) и применяет переменные окружения.
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			LockTimeoutMs:   2000,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "parking_service",
		},
		Booking: BookingConfig{
			MinDurationMinutes:       30,
			MaxDurationMinutes:       7 * 24 * 60,
			MaxAdvanceDays:           60,
			CancellationGraceMinutes: 60,
			CurrencyMinorUnits:       2,
			MaxAttempts:              3,
			RetryBackoffMs:           25,
		},
		Completer: CompleterConfig{
			Enabled:         true,
			IntervalSeconds: 60,
			BatchSize:       200,
		},
		Redis: RedisConfig{TTLSeconds: 60},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvHTTPPort, v)
		}
		c.Server.HTTPPort = port
	}
	return nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port out of range", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required (or %s)", ErrInvalidConfig, EnvJWTSecret)
	}

	b := c.Booking
	if b.MinDurationMinutes <= 0 || b.MaxDurationMinutes < b.MinDurationMinutes {
		return fmt.Errorf("%w: booking duration bounds are inconsistent", ErrInvalidConfig)
	}
	if b.MaxAdvanceDays <= 0 {
		return fmt.Errorf("%w: booking.max_advance_days must be positive", ErrInvalidConfig)
	}
	if b.CancellationGraceMinutes < 0 {
		return fmt.Errorf("%w: booking.cancellation_grace_minutes must not be negative", ErrInvalidConfig)
	}
	if b.CurrencyMinorUnits < 0 || b.CurrencyMinorUnits > 4 {
		return fmt.Errorf("%w: booking.currency_minor_units must be in [0, 4]", ErrInvalidConfig)
	}
	if b.MaxAttempts < 1 {
		return fmt.Errorf("%w: booking.max_attempts must be at least 1", ErrInvalidConfig)
	}

	if c.Completer.Enabled && (c.Completer.IntervalSeconds <= 0 || c.Completer.BatchSize <= 0) {
		return fmt.Errorf("%w: completer interval and batch size must be positive", ErrInvalidConfig)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: rate_limit values must be positive", ErrInvalidConfig)
	}

	return nil
}
