// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Bot      BotConfig      `mapstructure:"bot"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// BotConfig holds Telegram bot configuration. An empty token disables the bot.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// LedgerConfig holds points and streak settings.
type LedgerConfig struct {
	Timezone    string        `mapstructure:"timezone"`
	MissPenalty int64         `mapstructure:"miss_penalty"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// TasksConfig holds scheduled task settings.
type TasksConfig struct {
	DailyLimit int `mapstructure:"daily_limit"`
}

// SweepConfig holds nightly streak sweep settings.
type SweepConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	PageSize int  `mapstructure:"page_size"`
}

// CacheConfig selects the ledger cache backend ("lru" or "redis").
type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	Size   int           `mapstructure:"size"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds the redis connection used by the redis cache driver.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LLMConfig selects the chat provider ("openai" or "ollama").
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
}

// OpenAIConfig configures the OpenAI-compatible chat completions provider.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"`
}

// OllamaConfig configures the ollama provider. An empty host falls back to
// OLLAMA_HOST.
type OllamaConfig struct {
	Host    string `mapstructure:"host"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"`
}

// LogConfig holds zerolog settings. Format is "console" or "json".
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Location resolves the ledger timezone, falling back to UTC.
func (l *LedgerConfig) Location() *time.Location {
	if l.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, AUTH_JWT_SECRET, BOT_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Ledger.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Ledger.Timezone); err != nil {
			return nil, fmt.Errorf("invalid ledger timezone %q: %w", cfg.Ledger.Timezone, err)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "solorising")
	v.SetDefault("database.name", "solorising")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Ledger and streak rules
	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("ledger.miss_penalty", 50)
	v.SetDefault("ledger.lock_timeout", "5s")
	v.SetDefault("tasks.daily_limit", 3)
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.page_size", 500)

	v.SetDefault("cache.driver", "lru")
	v.SetDefault("cache.size", 4096)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 400)
	v.SetDefault("openai.timeout", 30)
	v.SetDefault("ollama.model", "llama3")
	v.SetDefault("ollama.timeout", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
