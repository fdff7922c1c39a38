// Package config assembles process configuration from an optional YAML file
// and environment variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-library-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	MediaDisk  = "disk"
	MediaMinio = "minio"
)

type Config struct {
	Addr          string `yaml:"addr"`
	StorageDriver string `yaml:"storageDriver"`

	Database  database.Config  `yaml:"database"`
	Log       utilities.Config `yaml:"-"`
	Auth      AuthConfig       `yaml:"auth"`
	RateLimit RateLimitConfig  `yaml:"rateLimit"`
	Media     MediaConfig      `yaml:"media"`
}

type AuthConfig struct {
	Secret      string        `yaml:"secret"`
	Issuer      string        `yaml:"issuer"`
	AccessTTL   time.Duration `yaml:"accessTTL"`
	RefreshTTL  time.Duration `yaml:"refreshTTL"`
	MaxFailed   int           `yaml:"maxFailed"`
	LockMinutes int           `yaml:"lockMinutes"`
}

// RateLimitConfig throttles the token endpoint. Disabled when RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	Prefix        string        `yaml:"prefix"`
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`

	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For is
	// believed. Empty trusts none.
	TrustedProxies []string `yaml:"trustedProxies"`
}

type MediaConfig struct {
	Driver         string `yaml:"driver"`
	Dir            string `yaml:"dir"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:          "0.0.0.0:8431",
		StorageDriver: DriverPostgres,
		Database:      database.ConfigFromEnv(),
		Log:           utilities.ConfigFromEnv(),
		Auth: AuthConfig{
			Issuer:      "library",
			AccessTTL:   15 * time.Minute,
			RefreshTTL:  30 * 24 * time.Hour,
			MaxFailed:   6,
			LockMinutes: 15,
		},
		RateLimit: RateLimitConfig{
			Prefix: "library:ratelimit",
			Limit:  10,
			Window: time.Minute,
		},
		Media: MediaConfig{
			Driver:         MediaDisk,
			Dir:            "media",
			MaxUploadBytes: 5 << 20,
			MinioBucket:    "profile-photos",
		},
	}
}

// Load reads the configuration and validates it for serving.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read reads CONFIG_FILE when set, then applies environment overrides. It
// does not validate, so tools that need only the database can use it.
func Read() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Addr, "HTTP_ADDR")
	setString(&c.StorageDriver, "STORAGE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setInt(&c.Database.MaxConns, "DATABASE_MAX_CONNS")

	setString(&c.Auth.Secret, "JWT_SECRET")
	setString(&c.Auth.Issuer, "JWT_ISSUER")
	setDuration(&c.Auth.AccessTTL, "JWT_ACCESS_TTL")
	setDuration(&c.Auth.RefreshTTL, "JWT_REFRESH_TTL")
	setInt(&c.Auth.MaxFailed, "AUTH_MAX_FAILED")
	setInt(&c.Auth.LockMinutes, "AUTH_LOCK_MINUTES")

	setString(&c.RateLimit.RedisAddr, "REDIS_ADDR")
	setString(&c.RateLimit.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.RateLimit.Limit, "LOGIN_RATE_LIMIT")
	setDuration(&c.RateLimit.Window, "LOGIN_RATE_WINDOW")
	setList(&c.RateLimit.TrustedProxies, "TRUSTED_PROXIES")

	setString(&c.Media.Driver, "MEDIA_DRIVER")
	setString(&c.Media.Dir, "MEDIA_DIR")
	setString(&c.Media.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&c.Media.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Media.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&c.Media.MinioBucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		c.Media.MinioUseSSL = v == "true" || v == "1"
	}
	if v := os.Getenv("MEDIA_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Media.MaxUploadBytes = n
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: addr is required")
	}
	switch c.StorageDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}
	if c.Auth.Secret == "" {
		return errors.New("config: auth secret is required (set JWT_SECRET)")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("config: token ttl must be positive")
	}
	switch c.Media.Driver {
	case MediaDisk:
		if c.Media.Dir == "" {
			return errors.New("config: media dir is required for the disk driver")
		}
	case MediaMinio:
		if c.Media.MinioEndpoint == "" || c.Media.MinioBucket == "" {
			return errors.New("config: minio endpoint and bucket are required")
		}
	default:
		return fmt.Errorf("config: unknown media driver %q", c.Media.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
