package config

import (
	"errors"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Gate      GateConfig
	QR        QRConfig
	Events    EventsConfig
	Dashboard DashboardConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GateConfig seeds the singleton gate configuration on first boot. After
// that the database row is authoritative and these values are ignored.
type GateConfig struct {
	DefaultCapacity int
	OpeningTime     string
}

// QRConfig controls pass credential token issuance.
type QRConfig struct {
	Secret string
	TTL    time.Duration
}

// EventsConfig tunes domain event publication.
type EventsConfig struct {
	Channel    string
	Workers    int
	BufferSize int
}

// DashboardConfig governs warden dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Gate = GateConfig{
		DefaultCapacity: v.GetInt("GATE_DEFAULT_CAPACITY"),
		OpeningTime:     v.GetString("GATE_OPENING_TIME"),
	}

	cfg.QR = QRConfig{
		Secret: v.GetString("QR_SECRET"),
		TTL:    parseDuration(v.GetString("QR_TTL"), 24*time.Hour),
	}

	cfg.Events = EventsConfig{
		Channel:    v.GetString("EVENTS_CHANNEL"),
		Workers:    v.GetInt("EVENTS_WORKERS"),
		BufferSize: v.GetInt("EVENTS_BUFFER_SIZE"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("DASHBOARD_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
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
	v.SetDefault("DB_NAME", "hostel_gatepass")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATIONS_DIR", "db/migrations")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GATE_DEFAULT_CAPACITY", 60)
	v.SetDefault("GATE_OPENING_TIME", "17:00")

	v.SetDefault("QR_SECRET", "dev_qr_secret")
	v.SetDefault("QR_TTL", "24h")

	v.SetDefault("EVENTS_CHANNEL", "gatepass:events")
	v.SetDefault("EVENTS_WORKERS", 1)
	v.SetDefault("EVENTS_BUFFER_SIZE", 64)

	v.SetDefault("DASHBOARD_CACHE_ENABLED", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")
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
