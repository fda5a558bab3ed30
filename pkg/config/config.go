package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Agenda recurrence modes.
const (
	AgendaModeAcademic = "academic"
	AgendaModeDate     = "date"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Calendar CalendarConfig
	Agenda   AgendaConfig
	Widgets  WidgetConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify access tokens.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig anchors time-of-day normalization and the academic week counter.
type CalendarConfig struct {
	Timezone     string
	ActiveTermID string
}

// Location resolves the configured timezone, falling back to the process local zone.
func (c CalendarConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AgendaConfig tunes agenda caching and the default recurrence mode.
type AgendaConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	DefaultMode  string
}

// WidgetConfig controls snapshot production for home-screen widgets.
type WidgetConfig struct {
	Enabled        bool
	SnapshotPath   string
	RefreshCron    string
	RefreshTimeout time.Duration
	Concurrency    int
	QueueWorkers   int
	QueueRetries   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		Timezone:     v.GetString("CALENDAR_TIMEZONE"),
		ActiveTermID: v.GetString("CALENDAR_ACTIVE_TERM_ID"),
	}

	cfg.Agenda = AgendaConfig{
		CacheEnabled: v.GetBool("AGENDA_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("AGENDA_CACHE_TTL"), 10*time.Minute),
		DefaultMode:  parseMode(v.GetString("AGENDA_DEFAULT_MODE")),
	}

	cfg.Widgets = WidgetConfig{
		Enabled:        v.GetBool("ENABLE_WIDGETS"),
		SnapshotPath:   v.GetString("WIDGET_SNAPSHOT_PATH"),
		RefreshCron:    v.GetString("WIDGET_REFRESH_CRON"),
		RefreshTimeout: parseDuration(v.GetString("WIDGET_REFRESH_TIMEOUT"), 2*time.Minute),
		Concurrency:    v.GetInt("WIDGET_REFRESH_CONCURRENCY"),
		QueueWorkers:   v.GetInt("WIDGET_QUEUE_WORKERS"),
		QueueRetries:   v.GetInt("WIDGET_QUEUE_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "student_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_TIMEZONE", "")
	v.SetDefault("CALENDAR_ACTIVE_TERM_ID", "")

	v.SetDefault("AGENDA_CACHE_ENABLED", true)
	v.SetDefault("AGENDA_CACHE_TTL", "10m")
	v.SetDefault("AGENDA_DEFAULT_MODE", AgendaModeAcademic)

	v.SetDefault("ENABLE_WIDGETS", true)
	v.SetDefault("WIDGET_SNAPSHOT_PATH", "./data/widgets.db")
	v.SetDefault("WIDGET_REFRESH_CRON", "*/15 * * * *")
	v.SetDefault("WIDGET_REFRESH_TIMEOUT", "2m")
	v.SetDefault("WIDGET_REFRESH_CONCURRENCY", 4)
	v.SetDefault("WIDGET_QUEUE_WORKERS", 2)
	v.SetDefault("WIDGET_QUEUE_RETRIES", 3)
}

func parseMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case AgendaModeDate:
		return AgendaModeDate
	default:
		return AgendaModeAcademic
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
