package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Accounts   AccountsConfig   `mapstructure:"accounts"`
	Session    SessionConfig    `mapstructure:"session"`
	LogLevel   string           `mapstructure:"log_level"`
	LogDir     string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
}

// DatasetConfig 植物資料集設定
type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

// ClassifierConfig 病害辨識模型服務設定
type ClassifierConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	MaxPixels int           `mapstructure:"max_pixels"`
}

// CacheConfig 辨識結果快取設定
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// 帳號儲存後端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// AccountsConfig 帳號儲存設定
type AccountsConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
}

// SessionConfig 登入 session 設定
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

// LoadConfig 載入設定：預設值 < .env < 環境變數
func LoadConfig() (*Config, error) {
	// .env 為可選
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load(viper.New(), ".")
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用的無前綴環境變數
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "APP_SERVER_PORT", "PORT")
	_ = v.BindEnv("dataset.path", "APP_DATASET_PATH", "PLANT_DATASET")
	_ = v.BindEnv("classifier.base_url", "APP_CLASSIFIER_BASE_URL", "CLASSIFIER_URL")
	_ = v.BindEnv("accounts.mongo_uri", "APP_ACCOUNTS_MONGO_URI", "MONGO_URI")
	_ = v.BindEnv("session.secret", "APP_SESSION_SECRET", "SESSION_SECRET")
	_ = v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Accounts.Backend = strings.ToLower(strings.TrimSpace(cfg.Accounts.Backend))

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// MaskSecret 遮罩密鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "hydro-advisor")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("dataset.path", "data/plants.csv")

	// 病害模型
	v.SetDefault("classifier.enabled", true)
	v.SetDefault("classifier.base_url", "http://localhost:8501")
	v.SetDefault("classifier.model", "leaf_disease")
	v.SetDefault("classifier.timeout", "20s")
	v.SetDefault("classifier.retries", 1)
	v.SetDefault("classifier.workers", 2)
	v.SetDefault("classifier.queue_size", 32)
	v.SetDefault("classifier.max_pixels", 16_000_000)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 500)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 帳號與 session
	v.SetDefault("accounts.backend", BackendMemory)
	v.SetDefault("accounts.redis_addr", "localhost:6379")
	v.SetDefault("accounts.redis_db", 0)
	v.SetDefault("accounts.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("accounts.mongo_database", "hydroponics_ai")
	v.SetDefault("accounts.bcrypt_cost", 10)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.cookie_name", "hydro_session")
	v.SetDefault("session.secure", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if cfg.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required")
	}

	if cfg.Classifier.Enabled {
		if cfg.Classifier.BaseURL == "" || cfg.Classifier.Model == "" {
			return fmt.Errorf("classifier base url and model are required")
		}
		if cfg.Classifier.Workers <= 0 {
			return fmt.Errorf("invalid classifier workers")
		}
		if cfg.Classifier.QueueSize <= 0 {
			return fmt.Errorf("invalid classifier queue size")
		}
		if cfg.Classifier.Timeout <= 0 {
			return fmt.Errorf("invalid classifier timeout")
		}
		if cfg.Classifier.MaxPixels <= 0 {
			return fmt.Errorf("invalid classifier max pixels")
		}
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if cfg.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	switch cfg.Accounts.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown accounts backend %q", cfg.Accounts.Backend)
	}

	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl")
	}
	if cfg.Session.Secret == "" && cfg.App.Env == "production" {
		return fmt.Errorf("session secret is required in production")
	}

	return nil
}
