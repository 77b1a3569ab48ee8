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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
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
	// ConnMaxLifetime and ConnMaxIdleTime bound pooled connections; zero leaves them unlimited.
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// AppName is reported to Postgres as application_name.
	AppName     string
	PingTimeout time.Duration
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	ClientName  string
	DialTimeout time.Duration
	PoolSize    int
}

// JWTConfig holds the secret used to verify tokens minted by the auth service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig governs lesson schedule generation and persistence.
type PlannerConfig struct {
	Enabled              bool
	DefaultPeriodsPerDay int
	DefaultTeachingDays  []string
	DraftTTL             time.Duration
	CacheTTL             time.Duration
	Autosave             bool
	Workers              int
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

		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
		AppName:         v.GetString("DB_APP_NAME"),
		PingTimeout:     parseDuration(v.GetString("DB_PING_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		ClientName:  v.GetString("REDIS_CLIENT_NAME"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		Enabled:              v.GetBool("ENABLE_PLANNER"),
		DefaultPeriodsPerDay: v.GetInt("PLANNER_DEFAULT_PERIODS_PER_DAY"),
		DefaultTeachingDays:  splitAndTrim(v.GetString("PLANNER_DEFAULT_TEACHING_DAYS")),
		DraftTTL:             parseDuration(v.GetString("PLANNER_DRAFT_TTL"), 24*time.Hour),
		CacheTTL:             parseDuration(v.GetString("PLANNER_CACHE_TTL"), 5*time.Minute),
		Autosave:             v.GetBool("PLANNER_AUTOSAVE"),
		Workers:              v.GetInt("PLANNER_WORKERS"),
	}
	if cfg.Planner.DefaultPeriodsPerDay <= 0 {
		cfg.Planner.DefaultPeriodsPerDay = 6
	}
	if cfg.Planner.Workers <= 0 {
		cfg.Planner.Workers = 1
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
	v.SetDefault("DB_NAME", "lesson_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DB_APP_NAME", "lesson-planner-api")
	v.SetDefault("DB_PING_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CLIENT_NAME", "lesson-planner-api")
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_POOL_SIZE", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_PLANNER", true)
	v.SetDefault("PLANNER_DEFAULT_PERIODS_PER_DAY", 6)
	v.SetDefault("PLANNER_DEFAULT_TEACHING_DAYS", "Monday,Tuesday,Wednesday,Thursday,Friday")
	v.SetDefault("PLANNER_DRAFT_TTL", "24h")
	v.SetDefault("PLANNER_CACHE_TTL", "5m")
	v.SetDefault("PLANNER_AUTOSAVE", false)
	v.SetDefault("PLANNER_WORKERS", 1)
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
