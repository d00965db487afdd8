// Package appconfig loads the aggregator's environment-driven configuration
// into a nested struct with defaults for anything unset.
package appconfig

import (
	"os"
	"strconv"
	"time"
)

// Config is the top-level process configuration, assembled entirely from
// environment variables — there is no config file in this incarnation.
type Config struct {
	Database DatabaseConfig
	NVD      NVDConfig
	CNNVD    CNNVDConfig
	AttackerKB AttackerKBConfig
	GitFeed  GitFeedConfig
	Sync     SyncConfig
	Logging  LoggingConfig
	Server   ServerConfig
}

// DatabaseConfig holds the relational store's connection string.
type DatabaseConfig struct {
	// URL is a DSN understood by gorm's sqlite driver, e.g. "file:vulnintel.db?cache=shared".
	URL string
}

// NVDConfig holds NVD CVE API 2.0 settings.
type NVDConfig struct {
	APIKey  string
	BaseURL string
}

// CNNVDConfig holds CNNVD translation API settings.
type CNNVDConfig struct {
	BaseURL string
}

// AttackerKBConfig holds AttackerKB topics endpoint settings.
type AttackerKBConfig struct {
	APIToken string
	BaseURL  string
}

// GitFeedConfig holds the Git-hosted KB template repository location.
type GitFeedConfig struct {
	RepoURL  string
	RepoPath string
	// PathFilter restricts commit polling to files under this prefix (e.g. "http/").
	PathFilter string
}

// SyncConfig controls the scheduled ingestion pipeline cadence.
type SyncConfig struct {
	IntervalHours int
	// WatermarkPath is the bbolt database file tracking per-adapter checkpoints.
	WatermarkPath string
}

// LoggingConfig controls the zerolog root logger.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// ServerConfig controls the thin illustrative HTTP query surface.
type ServerConfig struct {
	Address string
}

// Load reads configuration from the environment, filling in defaults for
// anything unset.
func Load() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "file:vulnintel.db?cache=shared&_fk=1"),
		},
		NVD: NVDConfig{
			APIKey:  getEnv("NVD_API_KEY", ""),
			BaseURL: getEnv("NVD_BASE_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0"),
		},
		CNNVD: CNNVDConfig{
			BaseURL: getEnv("CNNVD_API_BASE", "https://www.cnnvd.org.cn/web/"),
		},
		AttackerKB: AttackerKBConfig{
			APIToken: getEnv("ABK_API_TOKEN", ""),
			BaseURL:  getEnv("ATTACKERKB_BASE_URL", "https://api.attackerkb.com/v1"),
		},
		GitFeed: GitFeedConfig{
			RepoURL:    getEnv("GIT_TEMPLATES_URL", "https://github.com/projectdiscovery/nuclei-templates.git"),
			RepoPath:   getEnv("GIT_TEMPLATES_PATH", "./data/nuclei-templates"),
			PathFilter: getEnv("GIT_TEMPLATES_PATH_FILTER", "http/cves/"),
		},
		Sync: SyncConfig{
			IntervalHours: getEnvInt("SYNC_INTERVAL_HOURS", 6),
			WatermarkPath: getEnv("SYNC_WATERMARK_PATH", "./data/watermarks.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
	}
	return cfg
}

// SyncInterval returns the configured sync cadence as a time.Duration.
func (c *Config) SyncInterval() time.Duration {
	hours := c.Sync.IntervalHours
	if hours <= 0 {
		hours = 6
	}
	return time.Duration(hours) * time.Hour
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
