package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"fygallery/internal/source"
)

// Config represents the application configuration
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	S3       S3Config       `toml:"s3"`
	Viewer   ViewerConfig   `toml:"viewer"`
	Metadata MetadataConfig `toml:"metadata"`
	Tags     TagsConfig     `toml:"tags"`
	Logging  LoggingConfig  `toml:"logging"`
}

// CatalogConfig says where the descriptor and images come from
type CatalogConfig struct {
	Source         string `toml:"source"` // file, http or s3
	Root           string `toml:"root"`
	BaseURL        string `toml:"base_url"`
	Origin         string `toml:"origin"`
	Descriptor     string `toml:"descriptor"`
	ImagePrefix    string `toml:"image_prefix"`
	Watch          bool   `toml:"watch"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// S3Config contains bucket settings for the s3 source
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// ViewerConfig contains grid and lightbox settings
type ViewerConfig struct {
	TransitionMS     int `toml:"transition_ms"`
	ReshuffleFadeMS  int `toml:"reshuffle_fade_ms"`
	EagerThumbnails  int `toml:"eager_thumbnails"`
	ThumbnailSize    int `toml:"thumbnail_size"`
	ThumbnailWorkers int `toml:"thumbnail_workers"`
	AutoplaySeconds  int `toml:"autoplay_seconds"`
}

// MetadataConfig contains EXIF panel settings
type MetadataConfig struct {
	Enabled         bool `toml:"enabled"`
	CacheTTLMinutes int  `toml:"cache_ttl_minutes"`
}

// TagsConfig contains tag database settings
type TagsConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Source:         string(source.DriverFile),
			Root:           ".",
			Descriptor:     "images/gallery.json",
			ImagePrefix:    "images/",
			Watch:          false,
			TimeoutSeconds: 30,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Viewer: ViewerConfig{
			TransitionMS:     150,
			ReshuffleFadeMS:  300,
			EagerThumbnails:  12,
			ThumbnailSize:    300,
			ThumbnailWorkers: 4,
			AutoplaySeconds:  4,
		},
		Metadata: MetadataConfig{
			Enabled:         true,
			CacheTTLMinutes: 30,
		},
		Tags: TagsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns <user config dir>/fygallery/config.toml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fygallery.toml"
	}
	return filepath.Join(dir, "fygallery", "config.toml")
}

// LoadConfig loads configuration from a TOML file. A missing file is created
// with the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# fygallery configuration
# catalog.source selects where gallery.json and the images are read from: file, http or s3.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch source.Driver(c.Catalog.Source) {
	case source.DriverFile:
		if c.Catalog.Root == "" {
			return fmt.Errorf("catalog root cannot be empty for the file source")
		}
	case source.DriverHTTP:
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base_url cannot be empty for the http source")
		}
	case source.DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty for the s3 source")
		}
	default:
		return fmt.Errorf("invalid catalog source: %s (must be file, http or s3)", c.Catalog.Source)
	}
	if c.Catalog.Descriptor == "" {
		return fmt.Errorf("catalog descriptor cannot be empty")
	}

	if c.Viewer.TransitionMS < 0 || c.Viewer.ReshuffleFadeMS < 0 {
		return fmt.Errorf("viewer timings cannot be negative")
	}
	if c.Viewer.EagerThumbnails < 0 {
		return fmt.Errorf("viewer eager_thumbnails cannot be negative")
	}
	if c.Viewer.ThumbnailSize <= 0 {
		return fmt.Errorf("viewer thumbnail_size must be positive")
	}
	if c.Viewer.ThumbnailWorkers <= 0 {
		return fmt.Errorf("viewer thumbnail_workers must be positive")
	}
	if c.Viewer.AutoplaySeconds <= 0 {
		return fmt.Errorf("viewer autoplay_seconds must be positive")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Logging.Format)
	}
	return nil
}

// ApplyEnv overrides file values with FYGALLERY_* variables read through
// getenv (os.Getenv in production).
func (c *Config) ApplyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, err := strconv.ParseBool(getenv(key)); err == nil {
			*dst = v
		}
	}

	str("FYGALLERY_SOURCE", &c.Catalog.Source)
	str("FYGALLERY_ROOT", &c.Catalog.Root)
	str("FYGALLERY_BASE_URL", &c.Catalog.BaseURL)
	str("FYGALLERY_DESCRIPTOR", &c.Catalog.Descriptor)
	boolean("FYGALLERY_WATCH", &c.Catalog.Watch)

	str("FYGALLERY_S3_BUCKET", &c.S3.Bucket)
	str("FYGALLERY_S3_PREFIX", &c.S3.Prefix)
	str("FYGALLERY_S3_REGION", &c.S3.Region)
	str("FYGALLERY_S3_ENDPOINT", &c.S3.Endpoint)
	boolean("FYGALLERY_S3_PATH_STYLE", &c.S3.PathStyle)
	str("FYGALLERY_S3_ACCESS_KEY_ID", &c.S3.AccessKeyID)
	str("FYGALLERY_S3_SECRET_ACCESS_KEY", &c.S3.SecretAccessKey)

	str("FYGALLERY_TAGS_DIR", &c.Tags.Dir)
	str("FYGALLERY_LOG_LEVEL", &c.Logging.Level)
	str("FYGALLERY_LOG_FORMAT", &c.Logging.Format)

	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

// SourceConfig converts the catalog and s3 sections for source.New.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		Driver:  source.Driver(c.Catalog.Source),
		Root:    c.Catalog.Root,
		BaseURL: c.Catalog.BaseURL,
		Origin:  c.Catalog.Origin,
		Timeout: time.Duration(c.Catalog.TimeoutSeconds) * time.Second,
		S3: source.S3Config{
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
		},
	}
}

// TransitionDelay is the pause between fading out and swapping the lightbox image.
func (c *Config) TransitionDelay() time.Duration {
	return time.Duration(c.Viewer.TransitionMS) * time.Millisecond
}

// ReshuffleFade is the pause between hiding and re-rendering the grid.
func (c *Config) ReshuffleFade() time.Duration {
	return time.Duration(c.Viewer.ReshuffleFadeMS) * time.Millisecond
}

// AutoplayInterval is the time between automatic lightbox steps.
func (c *Config) AutoplayInterval() time.Duration {
	return time.Duration(c.Viewer.AutoplaySeconds) * time.Second
}

// MetadataTTL is how long formatted EXIF lines stay cached.
func (c *Config) MetadataTTL() time.Duration {
	return time.Duration(c.Metadata.CacheTTLMinutes) * time.Minute
}
