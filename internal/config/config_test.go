package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var envVars = []string{
	"FMFM_CONFIG", "DB_PATH", "UPLOAD_DIR", "THUMBNAIL_DIR", "INBOX_DIR", "API_PORT",
	"LOG_LEVEL", "LOG_FORMAT", "EPUB_CHUNK_BUDGET", "SEARCH_LIMIT", "PER_PAGE_ENTRY",
	"PER_PAGE_SEARCH", "EXTRACT_TIMEOUT", "THUMBNAIL_SIZE", "PAGE_CACHE_SIZE",
	"REFRESH_JOBS", "ACCEPTED_TYPES",
}

// isolate clears every config variable and moves into an empty directory so
// no .env file and no relative data directory leaks between tests.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name:     "default values",
			setupEnv: func(t *testing.T) {},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.DBPath != "./data/fmfm.db" || cfg.UploadDir != "./data/documents" ||
					cfg.ThumbnailDir != "./data/thumbnails" || cfg.InboxDir != "./data/inbox" {
					t.Errorf("paths = %+v", cfg)
				}
				if cfg.APIPort != "9000" || cfg.LogLevel != "info" {
					t.Errorf("APIPort/LogLevel = %q/%q", cfg.APIPort, cfg.LogLevel)
				}
				if cfg.EPUBChunkBudget != 100 || cfg.SearchLimit != 1000 || cfg.PerPageEntry != 50 ||
					cfg.PerPageSearch != 5 || cfg.ThumbnailSize != 400 || cfg.PageCacheSize != 64 || cfg.RefreshJobs != 4 {
					t.Errorf("numeric defaults = %+v", cfg)
				}
				if cfg.ExtractTimeout != 2*time.Minute {
					t.Errorf("ExtractTimeout = %v, want 2m", cfg.ExtractTimeout)
				}
				if !reflect.DeepEqual(cfg.AcceptedTypes, DefaultAcceptedTypes) {
					t.Errorf("AcceptedTypes = %v", cfg.AcceptedTypes)
				}
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				t.Setenv("API_PORT", "8080")
				t.Setenv("LOG_LEVEL", "DEBUG")
				t.Setenv("LOG_FORMAT", "text")
				t.Setenv("SEARCH_LIMIT", "20")
				t.Setenv("EXTRACT_TIMEOUT", "30s")
				t.Setenv("ACCEPTED_TYPES", "application/pdf=pdf, text/markdown=md")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "8080" || cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
					t.Errorf("config = %+v", cfg)
				}
				if cfg.SearchLimit != 20 || cfg.ExtractTimeout != 30*time.Second {
					t.Errorf("SearchLimit/ExtractTimeout = %d/%v", cfg.SearchLimit, cfg.ExtractTimeout)
				}
				want := map[string]string{"application/pdf": "pdf", "text/markdown": "md"}
				if !reflect.DeepEqual(cfg.AcceptedTypes, want) {
					t.Errorf("AcceptedTypes = %v, want %v", cfg.AcceptedTypes, want)
				}
			},
		},
		{
			name: "invalid integer",
			setupEnv: func(t *testing.T) {
				t.Setenv("SEARCH_LIMIT", "many")
			},
			wantErr: true,
		},
		{
			name: "zero integer",
			setupEnv: func(t *testing.T) {
				t.Setenv("PER_PAGE_SEARCH", "0")
			},
			wantErr: true,
		},
		{
			name: "invalid timeout",
			setupEnv: func(t *testing.T) {
				t.Setenv("EXTRACT_TIMEOUT", "soon")
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			setupEnv: func(t *testing.T) {
				t.Setenv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
		{
			name: "invalid accepted types",
			setupEnv: func(t *testing.T) {
				t.Setenv("ACCEPTED_TYPES", "application/pdf")
			},
			wantErr: true,
		},
		{
			name: "missing yaml file",
			setupEnv: func(t *testing.T) {
				t.Setenv("FMFM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
				t.Errorf("LogFormat = %q", cfg.LogFormat)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fmfm.yaml")
	yamlData := `
search_limit: 250
per_page_entry: 20
extract_timeout: 45s
api_port: "7000"
accepted_types:
  application/pdf: pdf
`
	if err := os.WriteFile(path, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FMFM_CONFIG", path)
	t.Setenv("API_PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SearchLimit != 250 || cfg.PerPageEntry != 20 || cfg.ExtractTimeout != 45*time.Second {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.APIPort != "7100" {
		t.Errorf("APIPort = %q, environment should win over yaml", cfg.APIPort)
	}
	if !reflect.DeepEqual(cfg.AcceptedTypes, map[string]string{"application/pdf": "pdf"}) {
		t.Errorf("AcceptedTypes = %v", cfg.AcceptedTypes)
	}
}

func TestLoad_CreatesDirectories(t *testing.T) {
	isolate(t)
	base := t.TempDir()
	dbPath := filepath.Join(base, "test", "db.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("UPLOAD_DIR", filepath.Join(base, "docs"))
	t.Setenv("THUMBNAIL_DIR", filepath.Join(base, "thumbs"))
	t.Setenv("INBOX_DIR", filepath.Join(base, "inbox"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, dir := range []string{filepath.Dir(dbPath), cfg.UploadDir, cfg.ThumbnailDir, cfg.InboxDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Load() should create %s: %v", dir, err)
		}
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestParseAcceptedTypes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "pairs", raw: "application/pdf=pdf,application/zip=zip", want: map[string]string{"application/pdf": "pdf", "application/zip": "zip"}},
		{name: "spaces and case", raw: " Application/PDF = PDF ,", want: map[string]string{"application/pdf": "pdf"}},
		{name: "missing filetype", raw: "application/pdf=", wantErr: true},
		{name: "empty", raw: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAcceptedTypes(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAcceptedTypes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAcceptedTypes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Filetypes(t *testing.T) {
	cfg := &Config{AcceptedTypes: DefaultAcceptedTypes}
	want := []string{"epub", "md", "pdf", "zip"}
	if got := cfg.Filetypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filetypes() = %v, want %v", got, want)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "env var not set", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}
