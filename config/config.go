package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`

	DB       DBConfig
	Auth     AuthConfig
	Profile  ProfileConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Search   SearchConfig
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

type DBConfig struct {
	Driver      string `env:"DB_DRIVER" env-default:"postgres"`
	URL         string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type AuthConfig struct {
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTIssuer           string        `env:"JWT_ISSUER" env-default:"astrotalk"`
	JWTTTL              time.Duration `env:"JWT_TTL" env-default:"168h"`
	BcryptCost          int           `env:"BCRYPT_COST" env-default:"10"`
	AllowMobilePassword bool          `env:"AUTH_ALLOW_MOBILE_PASSWORD" env-default:"false"`
}

type ProfileConfig struct {
	RejectBusyWhileOffline bool          `env:"PROFILE_REJECT_BUSY_OFFLINE" env-default:"false"`
	StatusCacheTTL         time.Duration `env:"STATUS_CACHE_TTL" env-default:"30s"`
}

type StorageConfig struct {
	Backend      string `env:"CERT_STORAGE" env-default:"local"`
	Dir          string `env:"CERT_DIR" env-default:"uploads"`
	PublicPrefix string `env:"CERT_PUBLIC_PREFIX" env-default:"/uploads"`
	MaxBytes     int64  `env:"CERT_MAX_BYTES" env-default:"5242880"`

	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3Bucket        string `env:"S3_BUCKET" env-default:"certificates"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

// RedisConfig leaves the status cache off when Addr is empty.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type SearchConfig struct {
	DefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" env-default:"50"`
	MaxLimit     int `env:"SEARCH_MAX_LIMIT" env-default:"200"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.URL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3Endpoint == "" || c.Storage.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required when CERT_STORAGE=s3")
		}
	default:
		return fmt.Errorf("unknown CERT_STORAGE %q", c.Storage.Backend)
	}
	if c.Search.MaxLimit <= 0 || c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return errors.New("SEARCH_DEFAULT_LIMIT must be positive and not above SEARCH_MAX_LIMIT")
	}
	return nil
}
