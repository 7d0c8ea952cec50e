// Package config loads the application configuration from a YAML file with
// environment variable and struct-tag default overrides.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Scanner  ScannerConfig  `yaml:"scanner" json:"scanner"`
	Assets   AssetConfig    `yaml:"assets" json:"assets"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"MEDIAVAULT_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"MEDIAVAULT_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"MEDIAVAULT_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"MEDIAVAULT_WRITE_TIMEOUT" default:"0s"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"MEDIAVAULT_ENABLE_CORS" default:"true"`
}

// DatabaseConfig holds catalog database configuration
type DatabaseConfig struct {
	Type     string `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Path     string `yaml:"path" json:"path" env:"SQLITE_PATH" default:"./data/mediavault.db"`
	Host     string `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port     int    `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username string `yaml:"username" json:"username" env:"POSTGRES_USER" default:"mediavault"`
	Password string `yaml:"password" json:"password" env:"POSTGRES_PASSWORD"`
	Database string `yaml:"database" json:"database" env:"POSTGRES_DB" default:"mediavault"`
	LogSQL   bool   `yaml:"log_sql" json:"log_sql" env:"DATABASE_LOG_SQL" default:"false"`
}

// ScannerConfig holds configuration for the catalog scanning pipeline
type ScannerConfig struct {
	VideoExtensions []string `yaml:"video_extensions" json:"video_extensions" env:"MEDIAVAULT_VIDEO_EXTENSIONS"`
	AudioExtensions []string `yaml:"audio_extensions" json:"audio_extensions" env:"MEDIAVAULT_AUDIO_EXTENSIONS"`
	ImageExtensions []string `yaml:"image_extensions" json:"image_extensions" env:"MEDIAVAULT_IMAGE_EXTENSIONS"`

	// Tier values written to collection rows. Standard viewers see
	// collections with tier <= StandardTierValue.
	StandardTierValue int `yaml:"standard_tier_value" json:"standard_tier_value" env:"MEDIAVAULT_STANDARD_TIER" default:"1"`
	VipTierValue      int `yaml:"vip_tier_value" json:"vip_tier_value" env:"MEDIAVAULT_VIP_TIER" default:"2"`

	FFProbePath string `yaml:"ffprobe_path" json:"ffprobe_path" env:"MEDIAVAULT_FFPROBE_PATH" default:"ffprobe"`

	// WatchLibraries enables filesystem monitoring of scanned roots
	WatchLibraries bool `yaml:"watch_libraries" json:"watch_libraries" env:"MEDIAVAULT_WATCH_LIBRARIES" default:"true"`
}

// AssetConfig holds thumbnail and artwork configuration
type AssetConfig struct {
	ThumbnailDir  string `yaml:"thumbnail_dir" json:"thumbnail_dir" env:"MEDIAVAULT_THUMBNAIL_DIR" default:"./data/thumbnails"`
	FFMpegPath    string `yaml:"ffmpeg_path" json:"ffmpeg_path" env:"MEDIAVAULT_FFMPEG_PATH" default:"ffmpeg"`
	WebPQuality   int    `yaml:"webp_quality" json:"webp_quality" env:"MEDIAVAULT_WEBP_QUALITY" default:"80"`
	PreviewMaxDim int    `yaml:"preview_max_dim" json:"preview_max_dim" env:"MEDIAVAULT_PREVIEW_MAX_DIM" default:"640"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"MEDIAVAULT_LOG_LEVEL" default:"info"`
}

var (
	defaultVideoExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".flv", ".wmv", ".rm", ".rmvb", ".3gp", ".webm"}
	defaultAudioExtensions = []string{".mp3", ".wav", ".flac", ".m4a", ".ogg", ".aac", ".wma"}
	defaultImageExtensions = []string{
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp",
		".raw", ".cr2", ".nef", ".arw", ".dng", ".orf", ".rw2",
		".tiff", ".tif", ".svg", ".ico", ".heic", ".heif",
		".avif", ".jxl", ".jp2", ".jpx", ".j2k", ".j2c",
	}
)

var (
	current *Config
	mu      sync.RWMutex
)

// Load reads configuration from the given YAML file (if it exists), then
// applies struct-tag defaults and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	applyDefaults(reflect.ValueOf(cfg).Elem())

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is fine; defaults + env cover everything.
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(reflect.ValueOf(cfg).Elem())

	if len(cfg.Scanner.VideoExtensions) == 0 {
		cfg.Scanner.VideoExtensions = defaultVideoExtensions
	}
	if len(cfg.Scanner.AudioExtensions) == 0 {
		cfg.Scanner.AudioExtensions = defaultAudioExtensions
	}
	if len(cfg.Scanner.ImageExtensions) == 0 {
		cfg.Scanner.ImageExtensions = defaultImageExtensions
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the last loaded configuration, loading defaults if Load was
// never called.
func Get() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	cfg, err := Load("")
	if err != nil {
		// Defaults alone cannot fail validation.
		panic(fmt.Sprintf("config: loading defaults: %v", err))
	}
	return cfg
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Scanner.VipTierValue <= c.Scanner.StandardTierValue {
		return fmt.Errorf("vip tier value (%d) must be greater than standard tier value (%d)",
			c.Scanner.VipTierValue, c.Scanner.StandardTierValue)
	}
	return nil
}

// applyDefaults walks the struct and sets zero-valued fields from their
// `default` tags.
func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyDefaults(field)
			continue
		}
		def := t.Field(i).Tag.Get("default")
		if def == "" || !field.IsZero() {
			continue
		}
		setField(field, def)
	}
}

// applyEnvOverrides walks the struct and overrides fields whose `env` tag
// names a set environment variable.
func applyEnvOverrides(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			applyEnvOverrides(field)
			continue
		}
		envName := t.Field(i).Tag.Get("env")
		if envName == "" {
			continue
		}
		if raw, ok := os.LookupEnv(envName); ok {
			setField(field, raw)
		}
	}
}

func setField(field reflect.Value, raw string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(raw); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(raw, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			field.Set(reflect.ValueOf(out))
		}
	}
}
