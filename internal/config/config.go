package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Auth        AuthConfig       `mapstructure:"auth"`
	Parameters  ParametersConfig `mapstructure:"parameters"`
	Log         LogConfig        `mapstructure:"log"`
	CatalogPath string           `mapstructure:"catalog_path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type AuthConfig struct {
	// JWTSecret is only used when VerifyTokens is set. Identity-provider tokens
	// are otherwise decoded without signature verification.
	JWTSecret    string `mapstructure:"jwt_secret"`
	VerifyTokens bool   `mapstructure:"verify_tokens"`
	// IssueTokens enables POST /api/auth/token, which signs test tokens with
	// JWTSecret. Never enable it in front of real users.
	IssueTokens bool `mapstructure:"issue_tokens"`
}

type ParametersConfig struct {
	RemoteURL     string        `mapstructure:"remote_url"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	RefreshCron   string        `mapstructure:"refresh_cron"`
	CacheCapacity int           `mapstructure:"cache_capacity"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads app.yaml (optional) plus environment overrides. A .env file in the
// working directory is applied to the environment first.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".")
}

// LoadFrom is Load with an explicit viper instance and search path.
func LoadFrom(v *viper.Viper, dir string) (*Config, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(dir + "/configs")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.pool_size", 5)
	v.SetDefault("redis.key_prefix", "hdcn:")
	v.SetDefault("auth.verify_tokens", false)
	v.SetDefault("auth.issue_tokens", false)
	v.SetDefault("parameters.fetch_timeout", 5*time.Second)
	v.SetDefault("parameters.cache_ttl", 10*time.Minute)
	v.SetDefault("parameters.refresh_cron", "@every 5m")
	v.SetDefault("parameters.cache_capacity", 16)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("catalog_path", "")

	v.SetEnvPrefix("HDCN")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.VerifyTokens && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.verify_tokens requires auth.jwt_secret")
	}
	if cfg.Auth.IssueTokens && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.issue_tokens requires auth.jwt_secret")
	}

	return &cfg, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")
