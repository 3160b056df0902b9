package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendS3    StorageBackend = "s3"
)

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKeyID  string
	AccessSecret string
	UsePathStyle bool
}

type SheetsConfig struct {
	URL      string
	Username string
	Timeout  time.Duration
}

// Enabled reports whether a spreadsheet endpoint is configured.
func (c SheetsConfig) Enabled() bool {
	return c.URL != ""
}

type Config struct {
	Addr           string
	DBPath         string
	BodyLimitMB    int
	Sheets         SheetsConfig
	SyncInterval   time.Duration
	SyncOnStart    bool
	FacetsConfig   string
	ExportStorage  StorageBackend
	ExportDir      string
	S3             S3Config
	BootstrapUser  string
	BootstrapToken string
	LogLevel       string
	LogFormat      string
}

func Load() (Config, error) {
	cfg := Config{
		Addr:        env("APP_ADDR", ":12850"),
		DBPath:      env("DB_PATH", "./data/pastpaper.db"),
		BodyLimitMB: envInt("HTTP_BODY_LIMIT_MB", 64),
		Sheets: SheetsConfig{
			URL:      env("SHEETS_URL", ""),
			Username: env("SHEETS_USERNAME", ""),
			Timeout:  envDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		SyncInterval:   envDuration("SYNC_INTERVAL", 0),
		SyncOnStart:    envBool("SYNC_ON_START", true),
		FacetsConfig:   env("FACETS_CONFIG", ""),
		ExportStorage:  StorageBackend(strings.ToLower(env("EXPORT_STORAGE", string(StorageBackendLocal)))),
		ExportDir:      env("EXPORT_DIR", "./data/exports"),
		BootstrapUser:  env("BOOTSTRAP_USER", "admin"),
		BootstrapToken: env("BOOTSTRAP_TOKEN", ""),
		LogLevel:       env("LOG_LEVEL", "info"),
		LogFormat:      env("LOG_FORMAT", "text"),
		S3: S3Config{
			Endpoint:     env("S3_ENDPOINT", ""),
			Region:       env("S3_REGION", ""),
			Bucket:       env("S3_BUCKET", ""),
			AccessKeyID:  env("S3_ACCESS_KEY_ID", ""),
			AccessSecret: env("S3_ACCESS_KEY_SECRET", ""),
			UsePathStyle: envBool("S3_USE_PATH_STYLE", true),
		},
	}

	switch cfg.ExportStorage {
	case StorageBackendLocal:
	case StorageBackendS3:
		if err := cfg.S3.Validate(); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported EXPORT_STORAGE %q", cfg.ExportStorage)
	}
	return cfg, nil
}

func (c S3Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("s3 endpoint is required when storage backend is s3")
	}
	if c.Region == "" {
		return fmt.Errorf("s3 region is required when storage backend is s3")
	}
	if c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required when storage backend is s3")
	}
	if c.AccessKeyID == "" {
		return fmt.Errorf("s3 access key id is required when storage backend is s3")
	}
	if c.AccessSecret == "" {
		return fmt.Errorf("s3 access key secret is required when storage backend is s3")
	}
	return nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
