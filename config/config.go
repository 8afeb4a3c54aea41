package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	StorageDriverS3         = "s3"
	StorageDriverCloudinary = "cloudinary"

	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

type TelegramConfig struct {
	Token string
	Debug bool
}

type DatabaseConfig struct {
	URL      string
	MaxConns int `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

type StorageConfig struct {
	Driver        string
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type S3Config struct {
	Endpoint  string
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string
	Region    string
	UseSSL    bool `mapstructure:"use_ssl"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string
}

type LLMConfig struct {
	Provider string
}

type ModelConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string
}

type AssistantConfig struct {
	// Timeout 0 означает без ограничения
	Timeout time.Duration
}

type RecordCacheConfig struct {
	Size int
	TTL  time.Duration
}

type Config struct {
	AppEnv              string `mapstructure:"app_env"`
	LogLevel            string `mapstructure:"log_level"`
	HTTPAddr            string `mapstructure:"http_addr"`
	MaxConcurrentEvents int    `mapstructure:"max_concurrent_events"`
	SelfieQualityGate   bool   `mapstructure:"selfie_quality_gate"`

	Telegram    TelegramConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Session     SessionConfig
	Storage     StorageConfig
	S3          S3Config
	Cloudinary  CloudinaryConfig
	LLM         LLMConfig
	OpenAI      ModelConfig
	Gemini      ModelConfig
	Assistant   AssistantConfig
	RecordCache RecordCacheConfig `mapstructure:"record_cache"`
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// telegram.token читается из TELEGRAM_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults задаёт значения по умолчанию. Ключ без значения по умолчанию
// viper не сопоставит с переменной окружения при Unmarshal, поэтому
// перечислены все ключи.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("max_concurrent_events", 64)
	v.SetDefault("selfie_quality_gate", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.backend", SessionBackendMemory)
	v.SetDefault("session.ttl", "720h")

	v.SetDefault("storage.driver", StorageDriverS3)
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.bucket", "user_selfies")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.use_ssl", true)

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "user_selfies")

	v.SetDefault("llm.provider", LLMProviderOpenAI)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("assistant.timeout", "0s")

	v.SetDefault("record_cache.size", 10000)
	v.SetDefault("record_cache.ttl", "10m")
}

// Validate проверяет обязательные параметры для выбранных драйверов.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}

	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for redis sessions"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend))
	}

	switch c.Storage.Driver {
	case StorageDriverS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_ENDPOINT and S3_BUCKET are required for s3 storage"))
		}
	case StorageDriverCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for cloudinary storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}

	if c.Assistant.Timeout < 0 {
		errs = append(errs, errors.New("ASSISTANT_TIMEOUT must not be negative"))
	}

	return errors.Join(errs...)
}
