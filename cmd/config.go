package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/jobs"

	"go.uber.org/zap/zapcore"
)

// Lock backends.
const (
	LockBackendRedis  = "redis"
	LockBackendNats   = "nats"
	LockBackendMemory = "memory"
)

// Notification backends.
const (
	NotifyBackendKafka = "kafka"
	NotifyBackendNats  = "nats"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	LockBackend        string
	LockTTL            time.Duration
	LockRequestTimeout time.Duration
	RedisAddr          string
	NatsURL            string
	NatsLockBucket     string

	NotifyBackend     string
	KafkaBrokers      []string
	KafkaTopic        string
	NatsSubjectPrefix string

	DefaultRadiusKm float64
	DefaultBatch    int
	DefaultTimeout  time.Duration

	SweepSpec  string
	SweepLimit int

	LogLevel zapcore.Level
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// MigrationURL returns the PostgreSQL URL used by the migration runner.
func (c Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSslMode)
}

// DispatchOptions returns the configured batch defaults.
func (c Config) DispatchOptions() commands.DispatchOptions {
	return commands.DispatchOptions{
		MaxRadiusKm: c.DefaultRadiusKm,
		BatchSize:   c.DefaultBatch,
		Timeout:     c.DefaultTimeout,
	}
}

// LoadConfig reads the configuration through getenv, applying defaults for unset keys.
func LoadConfig(getenv func(string) string) (Config, error) {
	r := envReader{getenv: getenv}

	cfg := Config{
		HTTPPort:   r.str("HTTP_PORT", "8080"),
		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.str("DB_PORT", "5432"),
		DBUser:     r.str("DB_USER", "postgres"),
		DBPassword: r.str("DB_PASSWORD", ""),
		DBName:     r.str("DB_NAME", "dispatch"),
		DBSslMode:  r.str("DB_SSLMODE", "disable"),

		LockBackend:        strings.ToLower(r.str("LOCK_BACKEND", LockBackendRedis)),
		LockTTL:            r.duration("LOCK_TTL", commands.DefaultLockTTL),
		LockRequestTimeout: r.duration("LOCK_REQUEST_TIMEOUT", commands.DefaultLockRequestTimeout),
		RedisAddr:          r.str("REDIS_ADDR", "localhost:6379"),
		NatsURL:            r.str("NATS_URL", "nats://localhost:4222"),
		NatsLockBucket:     r.str("NATS_LOCK_BUCKET", "dispatch_locks"),

		NotifyBackend:     strings.ToLower(r.str("NOTIFY_BACKEND", NotifyBackendKafka)),
		KafkaBrokers:      r.list("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:        r.str("KAFKA_TOPIC", "dispatch.notifications"),
		NatsSubjectPrefix: r.str("NATS_SUBJECT_PREFIX", "dispatch"),

		DefaultRadiusKm: r.float("DISPATCH_RADIUS_KM", commands.DefaultMaxRadiusKm),
		DefaultBatch:    r.integer("DISPATCH_BATCH_SIZE", commands.DefaultBatchSize),
		DefaultTimeout:  r.duration("DISPATCH_OFFER_TIMEOUT", commands.DefaultOfferTTL),

		SweepSpec:  r.str("SWEEP_SPEC", jobs.DefaultOfferExpirySpec),
		SweepLimit: r.integer("SWEEP_LIMIT", commands.DefaultSweepLimit),

		LogLevel: r.level("LOG_LEVEL", zapcore.InfoLevel),
	}

	if err := errors.Join(append(r.errs, cfg.validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.LockBackend {
	case LockBackendRedis, LockBackendNats, LockBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND: unknown backend %q", c.LockBackend))
	}
	switch c.NotifyBackend {
	case NotifyBackendKafka, NotifyBackendNats:
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_BACKEND: unknown backend %q", c.NotifyBackend))
	}
	if c.NotifyBackend == NotifyBackendKafka && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS: at least one broker is required"))
	}
	if c.DefaultRadiusKm <= 0 {
		errs = append(errs, errors.New("DISPATCH_RADIUS_KM: must be positive"))
	}
	if c.DefaultBatch <= 0 {
		errs = append(errs, errors.New("DISPATCH_BATCH_SIZE: must be positive"))
	}
	if c.DefaultTimeout <= 0 {
		errs = append(errs, errors.New("DISPATCH_OFFER_TIMEOUT: must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL: must be positive"))
	}
	if c.SweepLimit <= 0 {
		errs = append(errs, errors.New("SWEEP_LIMIT: must be positive"))
	}
	return errors.Join(errs...)
}

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

// duration accepts Go duration strings ("90s") or plain seconds ("90").
func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *envReader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (r *envReader) level(key string, def zapcore.Level) zapcore.Level {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	level, err := zapcore.ParseLevel(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return level
}
