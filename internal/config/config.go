package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// DefaultAcceptedTypes maps accepted upload MIME types to filetypes.
var DefaultAcceptedTypes = map[string]string{
	"application/pdf":      "pdf",
	"application/zip":      "zip",
	"application/x-zip":    "zip",
	"application/epub+zip": "epub",
	"text/markdown":        "md",
	"text/x-markdown":      "md",
}

// Config holds all configuration for the application.
type Config struct {
	DBPath       string
	UploadDir    string
	ThumbnailDir string
	InboxDir     string
	APIPort      string

	LogLevel  string
	LogFormat string // text or json

	EPUBChunkBudget int
	SearchLimit     int
	PerPageEntry    int
	PerPageSearch   int
	ExtractTimeout  time.Duration
	ThumbnailSize   int
	PageCacheSize   int
	RefreshJobs     int

	AcceptedTypes map[string]string
}

// fileConfig is the optional YAML overlay named by FMFM_CONFIG. Environment
// variables take precedence over it.
type fileConfig struct {
	DBPath          string            `yaml:"db_path"`
	UploadDir       string            `yaml:"upload_dir"`
	ThumbnailDir    string            `yaml:"thumbnail_dir"`
	InboxDir        string            `yaml:"inbox_dir"`
	APIPort         string            `yaml:"api_port"`
	LogLevel        string            `yaml:"log_level"`
	LogFormat       string            `yaml:"log_format"`
	EPUBChunkBudget int               `yaml:"epub_chunk_budget"`
	SearchLimit     int               `yaml:"search_limit"`
	PerPageEntry    int               `yaml:"per_page_entry"`
	PerPageSearch   int               `yaml:"per_page_search"`
	ExtractTimeout  string            `yaml:"extract_timeout"`
	ThumbnailSize   int               `yaml:"thumbnail_size"`
	PageCacheSize   int               `yaml:"page_cache_size"`
	RefreshJobs     int               `yaml:"refresh_jobs"`
	AcceptedTypes   map[string]string `yaml:"accepted_types"`
}

// Load reads configuration from environment variables and returns a Config struct.
// If a .env file exists in the current directory or up to five parents, it is
// loaded first; variables already set take precedence over .env values.
// FMFM_CONFIG may name a YAML file supplying values below the environment.
// The data, upload, thumbnail and inbox directories are created.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	var file fileConfig
	if path := os.Getenv("FMFM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read FMFM_CONFIG: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse FMFM_CONFIG %s: %w", path, err)
		}
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", or(file.DBPath, "./data/fmfm.db")),
		UploadDir:    getEnv("UPLOAD_DIR", or(file.UploadDir, "./data/documents")),
		ThumbnailDir: getEnv("THUMBNAIL_DIR", or(file.ThumbnailDir, "./data/thumbnails")),
		InboxDir:     getEnv("INBOX_DIR", or(file.InboxDir, "./data/inbox")),
		APIPort:      getEnv("API_PORT", or(file.APIPort, "9000")),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", or(file.LogLevel, "info"))),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", or(file.LogFormat, defaultLogFormat()))),
	}

	ints := []struct {
		key  string
		file int
		def  int
		dst  *int
	}{
		{"EPUB_CHUNK_BUDGET", file.EPUBChunkBudget, 100, &cfg.EPUBChunkBudget},
		{"SEARCH_LIMIT", file.SearchLimit, 1000, &cfg.SearchLimit},
		{"PER_PAGE_ENTRY", file.PerPageEntry, 50, &cfg.PerPageEntry},
		{"PER_PAGE_SEARCH", file.PerPageSearch, 5, &cfg.PerPageSearch},
		{"THUMBNAIL_SIZE", file.ThumbnailSize, 400, &cfg.ThumbnailSize},
		{"PAGE_CACHE_SIZE", file.PageCacheSize, 64, &cfg.PageCacheSize},
		{"REFRESH_JOBS", file.RefreshJobs, 4, &cfg.RefreshJobs},
	}
	for _, v := range ints {
		def := v.def
		if v.file > 0 {
			def = v.file
		}
		n, err := getEnvInt(v.key, def)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	timeout := getEnv("EXTRACT_TIMEOUT", or(file.ExtractTimeout, "2m"))
	cfg.ExtractTimeout, err = time.ParseDuration(timeout)
	if err != nil || cfg.ExtractTimeout <= 0 {
		return nil, fmt.Errorf("EXTRACT_TIMEOUT must be a positive duration, got %q", timeout)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	cfg.AcceptedTypes = DefaultAcceptedTypes
	if len(file.AcceptedTypes) > 0 {
		cfg.AcceptedTypes = file.AcceptedTypes
	}
	if raw := os.Getenv("ACCEPTED_TYPES"); raw != "" {
		types, err := ParseAcceptedTypes(raw)
		if err != nil {
			return nil, err
		}
		cfg.AcceptedTypes = types
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.UploadDir, cfg.ThumbnailDir, cfg.InboxDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// ParseAcceptedTypes parses "mime=filetype,mime=filetype".
func ParseAcceptedTypes(raw string) (map[string]string, error) {
	types := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		mimeType, filetype, ok := strings.Cut(pair, "=")
		mimeType = strings.ToLower(strings.TrimSpace(mimeType))
		filetype = strings.ToLower(strings.TrimSpace(filetype))
		if !ok || mimeType == "" || filetype == "" {
			return nil, fmt.Errorf("ACCEPTED_TYPES entry %q must be mime=filetype", pair)
		}
		types[mimeType] = filetype
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("ACCEPTED_TYPES is empty")
	}
	return types, nil
}

// Filetypes returns the distinct filetypes in AcceptedTypes, sorted.
func (c *Config) Filetypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ft := range c.AcceptedTypes {
		if !seen[ft] {
			seen[ft] = true
			out = append(out, ft)
		}
	}
	sort.Strings(out)
	return out
}

// defaultLogFormat is text on a terminal and json otherwise.
func defaultLogFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "text"
	}
	return "json"
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets a positive integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
