package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2368
	defaultEnv        = "development"
	defaultDSN        = "root:password@tcp(127.0.0.1:3306)/surerank?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL   = "redis://localhost:6379/0"

	// DefaultSitemapChunkSize is the number of entries per cache chunk file.
	DefaultSitemapChunkSize = 20
	defaultCachePrefix      = "surerank"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                  `yaml:"port"`
	DSN            string               `yaml:"dsn"` // MySQL DSN
	RedisURL       string               `yaml:"redis_url"`
	Env            string               `yaml:"env"` // "development" | "production"
	JWTSecret      string               `yaml:"jwt_secret"`
	AllowedOrigins []string             `yaml:"allowed_origins"`
	Paths          RuntimePathsConfig   `yaml:"paths"`
	Sitemap        SitemapRuntimeConfig `yaml:"sitemap"`
	S3             S3RuntimeConfig      `yaml:"s3"`
}

// RuntimePathsConfig overrides the default runtime directories.
type RuntimePathsConfig struct {
	Logs    string `yaml:"logs"`
	Cache   string `yaml:"cache"`
	Static  string `yaml:"static"`
	Backups string `yaml:"backups"`
}

// SitemapRuntimeConfig carries the cache knobs that are deployment concerns
// rather than persisted settings.
type SitemapRuntimeConfig struct {
	CachePrefix string `yaml:"cache_prefix"`
	ChunkSize   int    `yaml:"chunk_size"`
}

// S3RuntimeConfig configures the optional S3 backup target.
type S3RuntimeConfig struct {
	Enable          bool   `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	PathTemplate    string `yaml:"path_template"`
	CustomDomain    string `yaml:"custom_domain"`
}

// Load reads and validates the YAML config file at configPath.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.normalize()
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Sitemap.ChunkSize < 1 {
		return nil, fmt.Errorf("invalid sitemap.chunk_size %d in %q, expected >= 1", cfg.Sitemap.ChunkSize, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		DSN:      defaultDSN,
		RedisURL: defaultRedisURL,
		Env:      defaultEnv,
		Sitemap: SitemapRuntimeConfig{
			CachePrefix: defaultCachePrefix,
			ChunkSize:   DefaultSitemapChunkSize,
		},
	}
}

func (c *AppConfig) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if strings.TrimSpace(c.Sitemap.CachePrefix) == "" {
		c.Sitemap.CachePrefix = defaultCachePrefix
	}
	if c.Sitemap.ChunkSize == 0 {
		c.Sitemap.ChunkSize = DefaultSitemapChunkSize
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
