package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Duplicate    DuplicateConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string
	Env            string
	Host           string
	Port           string
	Version        string
	RequestTimeout time.Duration
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	MigrationsDir   string
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters. The service never issues
// tokens or stores credentials; it only verifies what the identity provider
// signed.
type AuthConfig struct {
	JWTSecret string
}

// SLAConfig is the deployment-owned priority hour table. Which values are
// authoritative is a product decision; these defaults are the single
// documented baseline.
type SLAConfig struct {
	EmergencyHours int
	HighHours      int
	MediumHours    int
	LowHours       int
}

// Durations converts the hour table into the policy's duration map.
func (s SLAConfig) Durations() map[domain.Priority]time.Duration {
	return map[domain.Priority]time.Duration{
		domain.PriorityEmergency: time.Duration(s.EmergencyHours) * time.Hour,
		domain.PriorityHigh:      time.Duration(s.HighHours) * time.Hour,
		domain.PriorityMedium:    time.Duration(s.MediumHours) * time.Hour,
		domain.PriorityLow:       time.Duration(s.LowHours) * time.Hour,
	}
}

// DuplicateConfig tunes submission-time duplicate detection.
type DuplicateConfig struct {
	SimilarityThreshold  float64
	TimeWindowDays       int
	MaxCandidatesChecked int
}

// SchedulerConfig controls the background compliance jobs.
type SchedulerConfig struct {
	Enabled                bool
	SLAScanInterval        time.Duration
	RetentionSweepInterval time.Duration
	NotificationMaxAge     time.Duration
}

// NotificationConfig holds stub delivery endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional; process env and defaults cover everything else.
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Env:            v.GetString("APP_ENV"),
			Host:           v.GetString("APP_HOST"),
			Port:           v.GetString("APP_PORT"),
			Version:        v.GetString("APP_VERSION"),
			RequestTimeout: v.GetDuration("HTTP_REQUEST_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("POSTGRES_DSN"),
			MaxConns:        int32(v.GetInt("POSTGRES_MAX_CONNS")),
			MinConns:        int32(v.GetInt("POSTGRES_MIN_CONNS")),
			RunMigrations:   v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			MigrationsDir:   v.GetString("POSTGRES_MIGRATIONS_DIR"),
			ConnMaxIdleTime: v.GetDuration("POSTGRES_CONN_MAX_IDLE"),
			ConnMaxLifetime: v.GetDuration("POSTGRES_CONN_MAX_LIFE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		SLA: SLAConfig{
			EmergencyHours: v.GetInt("SLA_HOURS_EMERGENCY"),
			HighHours:      v.GetInt("SLA_HOURS_HIGH"),
			MediumHours:    v.GetInt("SLA_HOURS_MEDIUM"),
			LowHours:       v.GetInt("SLA_HOURS_LOW"),
		},
		Duplicate: DuplicateConfig{
			SimilarityThreshold:  v.GetFloat64("DUPLICATE_SIMILARITY_THRESHOLD"),
			TimeWindowDays:       v.GetInt("DUPLICATE_TIME_WINDOW_DAYS"),
			MaxCandidatesChecked: v.GetInt("DUPLICATE_MAX_CANDIDATES"),
		},
		Scheduler: SchedulerConfig{
			Enabled:                v.GetBool("SCHEDULER_ENABLED"),
			SLAScanInterval:        v.GetDuration("SCHEDULER_SLA_SCAN_INTERVAL"),
			RetentionSweepInterval: v.GetDuration("SCHEDULER_RETENTION_SWEEP_INTERVAL"),
			NotificationMaxAge:     v.GetDuration("SCHEDULER_NOTIFICATION_MAX_AGE"),
		},
		Notification: NotificationConfig{
			EmailFrom:  v.GetString("NOTIFY_EMAIL_FROM"),
			WebhookURL: v.GetString("NOTIFY_WEBHOOK_URL"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "facility-report-service")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")

	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_RUN_MIGRATIONS", true)
	v.SetDefault("POSTGRES_MIGRATIONS_DIR", "migrations")
	v.SetDefault("POSTGRES_CONN_MAX_IDLE", "30s")
	v.SetDefault("POSTGRES_CONN_MAX_LIFE", "5m")

	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_JWT_SECRET", "dev-secret")

	v.SetDefault("SLA_HOURS_EMERGENCY", 2)
	v.SetDefault("SLA_HOURS_HIGH", 8)
	v.SetDefault("SLA_HOURS_MEDIUM", 24)
	v.SetDefault("SLA_HOURS_LOW", 72)

	v.SetDefault("DUPLICATE_SIMILARITY_THRESHOLD", 0.8)
	v.SetDefault("DUPLICATE_TIME_WINDOW_DAYS", 14)
	v.SetDefault("DUPLICATE_MAX_CANDIDATES", 10)

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_SLA_SCAN_INTERVAL", "30m")
	v.SetDefault("SCHEDULER_RETENTION_SWEEP_INTERVAL", "24h")
	v.SetDefault("SCHEDULER_NOTIFICATION_MAX_AGE", "720h")

	v.SetDefault("NOTIFY_EMAIL_FROM", "facilities@aastu.edu.et")
	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}
