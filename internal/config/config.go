package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Counter CounterConfig `yaml:"counter"`
	Queue   QueueConfig   `yaml:"queue"`
	Webhook WebhookConfig `yaml:"webhook"`
	Worker  WorkerConfig  `yaml:"worker"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host         string  `yaml:"host"`
	Port         int     `yaml:"port"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	RateBurst    int     `yaml:"rate_burst"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	// JWTSecret enables bearer-token auth on /api/v1 when set.
	JWTSecret string `yaml:"jwt_secret"`
}

type CounterConfig struct {
	// Parallelism overrides the detected hardware parallelism when > 0.
	Parallelism  int           `yaml:"parallelism"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MaxTextBytes int           `yaml:"max_text_bytes"`
}

type QueueConfig struct {
	Concurrency int           `yaml:"concurrency"`
	JobTTL      time.Duration `yaml:"job_ttl"`
}

// WebhookConfig controls job completion callbacks. An empty Secret sends
// them unsigned.
type WebhookConfig struct {
	Secret    string        `yaml:"secret"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queue_size"`

	// AllowPrivate permits callbacks to loopback, private and link-local
	// addresses. Off by default.
	AllowPrivate bool `yaml:"allow_private"`
}

type WorkerConfig struct {
	// MetricsAddr is where the worker serves /metrics; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from the environment. If WORDCOUNT_CONFIG names a
// YAML file, its values are applied on top of the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("WORDCOUNT_CONFIG"))
}

// LoadFile is Load with an explicit YAML overlay path; an empty path skips it.
func LoadFile(path string) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func fromEnv() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	parallelism, err := getEnvInt("COUNTER_PARALLELISM", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid COUNTER_PARALLELISM: %w", err)
	}

	cacheTTL, err := getEnvDuration("COUNTER_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid COUNTER_CACHE_TTL: %w", err)
	}

	maxText, err := getEnvInt("COUNTER_MAX_TEXT_BYTES", 8<<20)
	if err != nil {
		return nil, fmt.Errorf("invalid COUNTER_MAX_TEXT_BYTES: %w", err)
	}

	concurrency, err := getEnvInt("QUEUE_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_CONCURRENCY: %w", err)
	}

	jobTTL, err := getEnvDuration("QUEUE_JOB_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid QUEUE_JOB_TTL: %w", err)
	}

	webhookTimeout, err := getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	webhookQueue, err := getEnvInt("WEBHOOK_QUEUE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_QUEUE_SIZE: %w", err)
	}

	allowPrivate, err := getEnvBool("WEBHOOK_ALLOW_PRIVATE", false)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_ALLOW_PRIVATE: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			RateLimitRPS: rps,
			RateBurst:    burst,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Counter: CounterConfig{
			Parallelism:  parallelism,
			CacheTTL:     cacheTTL,
			MaxTextBytes: maxText,
		},
		Queue: QueueConfig{
			Concurrency: concurrency,
			JobTTL:      jobTTL,
		},
		Webhook: WebhookConfig{
			Secret:       getEnv("WEBHOOK_SECRET", ""),
			Timeout:      webhookTimeout,
			QueueSize:    webhookQueue,
			AllowPrivate: allowPrivate,
		},
		Worker: WorkerConfig{
			MetricsAddr: getEnv("WORKER_METRICS_ADDR", ":9091"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("rate limit and burst must be positive"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis addr is required"))
	}
	if c.Counter.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("counter parallelism %d is negative", c.Counter.Parallelism))
	}
	if c.Counter.MaxTextBytes < 0 {
		errs = append(errs, errors.New("counter max_text_bytes is negative"))
	}
	if c.Queue.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("queue concurrency %d must be positive", c.Queue.Concurrency))
	}
	if c.Webhook.Timeout <= 0 || c.Webhook.QueueSize <= 0 {
		errs = append(errs, errors.New("webhook timeout and queue_size must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
