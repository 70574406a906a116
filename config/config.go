package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env string

const (
	Dev        Env = "development"
	Test       Env = "test"
	Preview    Env = "preview"
	Production Env = "production"
)

type Config struct {
	AppName string
	ENV     Env
	AppPort int

	LogLevel string
	// LogFile enables a rotating JSON log file next to stderr output.
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// API defaults for /search.
	ResultsLimit int
	MinRating    float64
	CORSOrigins  []string

	Scrape struct {
		Timeout        time.Duration
		MaxRetries     int
		RetryBaseDelay time.Duration
		MaxBodyBytes   int64
		UserAgents     []string
		Concurrency    int
		// HostRPS throttles requests per store host; 0 disables throttling.
		HostRPS float64
	}

	Cache struct {
		Backend string
		Dir     string
		TTL     time.Duration
	}

	Monitor struct {
		Enabled       bool
		CycleInterval time.Duration
		CheckInterval time.Duration
		CheckDelay    time.Duration
	}

	// Redis (optional; enabled only when Host is set).
	Redis struct {
		User     string
		Password string
		Host     string
		Port     int
		Scheme   string
	}

	// DB (optional; the watchlist stays in memory when DSN is empty).
	DB struct {
		DSN         string
		Token       string
		AutoMigrate bool
	}

	RabbitMQ struct {
		URL             string
		Exchange        string
		Queue           string
		RoutingKey      string
		Prefetch        int
		DeclareTopology bool
	}

	SMTP struct {
		Host            string
		Port            int
		Username        string
		Password        string
		From            string
		RecipientDomain string
	}

	Inngest struct {
		AppID      string
		SigningKey string
		Dev        string
		ServeHost  string
		ServePath  string
	}
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "buywise")
	v.SetDefault("ENV", string(Dev))
	v.SetDefault("APP_PORT", 5000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.SetDefault("RESULTS_LIMIT", 20)
	v.SetDefault("MIN_RATING", 3.0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("SCRAPE_TIMEOUT", "10s")
	v.SetDefault("SCRAPE_MAX_RETRIES", 3)
	v.SetDefault("SCRAPE_RETRY_BASE_DELAY", "1s")
	v.SetDefault("SCRAPE_MAX_BODY_BYTES", 5<<20)
	v.SetDefault("SCRAPE_CONCURRENCY", 3)
	v.SetDefault("SCRAPE_HOST_RPS", 0)

	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("CACHE_DIR", "data/cache")
	v.SetDefault("CACHE_TTL", "1800s")

	v.SetDefault("MONITOR_ENABLED", true)
	v.SetDefault("MONITOR_CYCLE_INTERVAL", "1800s")
	v.SetDefault("MONITOR_CHECK_INTERVAL", "2h")
	v.SetDefault("MONITOR_CHECK_DELAY", "5s")

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_SCHEME", "redis")

	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("RABBITMQ_EXCHANGE", "events")
	v.SetDefault("RABBITMQ_QUEUE", "notifications.price.v1")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "notifications.price.v1")
	v.SetDefault("RABBITMQ_PREFETCH", 1)
	v.SetDefault("RABBITMQ_DECLARE_TOPOLOGY", true)

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("INNGEST_SERVE_PATH", "/api/inngest")

	return v
}

func NewConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName: v.GetString("APP_NAME"),
		ENV:     Env(strings.ToLower(strings.TrimSpace(v.GetString("ENV")))),
		AppPort: v.GetInt("APP_PORT"),

		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFile:       strings.TrimSpace(v.GetString("LOG_FILE")),
		LogMaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),

		ResultsLimit: v.GetInt("RESULTS_LIMIT"),
		MinRating:    v.GetFloat64("MIN_RATING"),
		CORSOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS"), ","),
	}

	cfg.Scrape.Timeout = v.GetDuration("SCRAPE_TIMEOUT")
	cfg.Scrape.MaxRetries = v.GetInt("SCRAPE_MAX_RETRIES")
	cfg.Scrape.RetryBaseDelay = v.GetDuration("SCRAPE_RETRY_BASE_DELAY")
	cfg.Scrape.MaxBodyBytes = v.GetInt64("SCRAPE_MAX_BODY_BYTES")
	cfg.Scrape.UserAgents = splitList(v.GetString("SCRAPE_USER_AGENTS"), "|")
	if len(cfg.Scrape.UserAgents) == 0 {
		cfg.Scrape.UserAgents = append([]string(nil), defaultUserAgents...)
	}
	cfg.Scrape.Concurrency = v.GetInt("SCRAPE_CONCURRENCY")
	cfg.Scrape.HostRPS = v.GetFloat64("SCRAPE_HOST_RPS")

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND")))
	cfg.Cache.Dir = v.GetString("CACHE_DIR")
	cfg.Cache.TTL = v.GetDuration("CACHE_TTL")

	cfg.Monitor.Enabled = v.GetBool("MONITOR_ENABLED")
	cfg.Monitor.CycleInterval = v.GetDuration("MONITOR_CYCLE_INTERVAL")
	cfg.Monitor.CheckInterval = v.GetDuration("MONITOR_CHECK_INTERVAL")
	cfg.Monitor.CheckDelay = v.GetDuration("MONITOR_CHECK_DELAY")

	cfg.Redis.User = v.GetString("REDIS_USER")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Scheme = v.GetString("REDIS_SCHEME")

	cfg.DB.DSN = strings.TrimSpace(v.GetString("DB_DSN"))
	cfg.DB.Token = strings.TrimSpace(v.GetString("DB_AUTH_TOKEN"))
	cfg.DB.AutoMigrate = v.GetBool("DB_AUTO_MIGRATE")

	cfg.RabbitMQ.URL = strings.TrimSpace(v.GetString("RABBITMQ_URL"))
	cfg.RabbitMQ.Exchange = v.GetString("RABBITMQ_EXCHANGE")
	cfg.RabbitMQ.Queue = v.GetString("RABBITMQ_QUEUE")
	cfg.RabbitMQ.RoutingKey = v.GetString("RABBITMQ_ROUTING_KEY")
	cfg.RabbitMQ.Prefetch = v.GetInt("RABBITMQ_PREFETCH")
	cfg.RabbitMQ.DeclareTopology = v.GetBool("RABBITMQ_DECLARE_TOPOLOGY")

	cfg.SMTP.Host = strings.TrimSpace(v.GetString("SMTP_HOST"))
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")
	cfg.SMTP.RecipientDomain = strings.TrimSpace(v.GetString("SMTP_RECIPIENT_DOMAIN"))

	cfg.Inngest.AppID = v.GetString("INNGEST_APP_ID")
	cfg.Inngest.SigningKey = v.GetString("INNGEST_SIGNING_KEY")
	cfg.Inngest.Dev = v.GetString("INNGEST_DEV")
	cfg.Inngest.ServeHost = v.GetString("INNGEST_SERVE_HOST")
	cfg.Inngest.ServePath = v.GetString("INNGEST_SERVE_PATH")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.ENV {
	case Dev, Test, Preview, Production:
	default:
		return fmt.Errorf("invalid ENV %q", cfg.ENV)
	}
	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", cfg.AppPort)
	}
	if cfg.Redis.Port <= 0 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("invalid REDIS_PORT %d", cfg.Redis.Port)
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("invalid SMTP_PORT %d", cfg.SMTP.Port)
	}
	if cfg.Scrape.Timeout <= 0 {
		return fmt.Errorf("invalid SCRAPE_TIMEOUT %s", cfg.Scrape.Timeout)
	}
	if cfg.Scrape.MaxRetries <= 0 {
		return fmt.Errorf("invalid SCRAPE_MAX_RETRIES %d", cfg.Scrape.MaxRetries)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("invalid CACHE_TTL %s", cfg.Cache.TTL)
	}
	switch cfg.Cache.Backend {
	case "file", "memory", "redis":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (supported: file, memory, redis)", cfg.Cache.Backend)
	}
	if cfg.Monitor.CycleInterval <= 0 || cfg.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("invalid monitor intervals cycle=%s check=%s", cfg.Monitor.CycleInterval, cfg.Monitor.CheckInterval)
	}
	if cfg.Monitor.CheckDelay < 0 {
		return fmt.Errorf("invalid MONITOR_CHECK_DELAY %s", cfg.Monitor.CheckDelay)
	}
	return nil
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
