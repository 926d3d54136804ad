package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Record store.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration. RedisURL, when set, wins over the discrete fields.
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Machine clients authenticate with a static bearer token.
	APIToken     string `mapstructure:"API_TOKEN"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	// Outbound OTP mail.
	MailMode     string `mapstructure:"MAIL_MODE"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	ChatBroadcaster string `mapstructure:"CHAT_BROADCASTER"`

	// Proxies whose forwarding headers are trusted for the client IP.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

const (
	MailModeLog   = "log"
	MailModeSMTP  = "smtp"
	MailModeQueue = "queue"

	BroadcasterRedis  = "redis"
	BroadcasterMemory = "memory"
)

// LoadConfig reads config.yaml (if any), then the environment, on top of defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	// Set default values.
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "assetdesk")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_AUTH_DB", 1)
	v.SetDefault("REDIS_OTP_DB", 2)
	v.SetDefault("REDIS_QUEUE_DB", 3)
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("MAIL_MODE", MailModeLog)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@assetdesk.local")
	v.SetDefault("CHAT_BROADCASTER", BroadcasterRedis)
	v.SetDefault("TRUSTED_PROXIES", []string{})

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.MailMode {
	case MailModeLog, MailModeSMTP, MailModeQueue:
	default:
		return fmt.Errorf("invalid MAIL_MODE %q", c.MailMode)
	}
	switch c.ChatBroadcaster {
	case BroadcasterRedis, BroadcasterMemory:
	default:
		return fmt.Errorf("invalid CHAT_BROADCASTER %q", c.ChatBroadcaster)
	}
	if c.IsProduction() {
		if c.APIToken == "" {
			return fmt.Errorf("API_TOKEN is required in production")
		}
		// Log mode writes codes to the log instead of mailing them.
		if c.MailMode == MailModeLog {
			return fmt.Errorf("MAIL_MODE %q is not allowed in production", c.MailMode)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
