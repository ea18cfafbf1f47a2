package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Backend contains connection settings for the AutoBlog content service.
type Backend struct {
	BaseURL          string `toml:"base_url"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
}

// Auth contains connection settings for the authentication service.
type Auth struct {
	// BaseURL falls back to the backend base URL when empty.
	BaseURL   string `toml:"base_url"`
	TokenPath string `toml:"token_path"`
}

// Analysis contains settings for the website-analysis stage.
type Analysis struct {
	// EnhancementMaxAttempts bounds the wait for the backend's slower
	// research enrichment before proceeding with partial data.
	EnhancementMaxAttempts int `toml:"enhancement_max_attempts"`
	EnhancementBaseDelayMS int `toml:"enhancement_base_delay_ms"`
	EnhancementMaxDelayMS  int `toml:"enhancement_max_delay_ms"`
	// ProbeEnabled allows a best-effort fetch of the site's title and
	// description to enrich the local fallback analysis.
	ProbeEnabled        bool `toml:"probe_enabled"`
	ProbeTimeoutSeconds int  `toml:"probe_timeout_seconds"`
}

// Workflow contains engine timing configuration.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Analysis       bool   `toml:"analysis"`
	Content        bool   `toml:"content"`
	Export         bool   `toml:"export"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Demo contains the gate-bypass escape hatch used for demos and testing.
type Demo struct {
	Enabled bool `toml:"enabled"`
}

// Library contains capacity policies for the saved-content collections.
type Library struct {
	MaxProjects      int `toml:"max_projects"`
	MaxPosts         int `toml:"max_posts"`
	MaxActivities    int `toml:"max_activities"`
	SnapshotTTLHours int `toml:"snapshot_ttl_hours"`
}

// Config encapsulates all configuration values for the AutoBlog engine.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and export directories
//   - Backend: content-generation service connection and retry policy
//   - Auth: authentication service and token storage
//   - Analysis: enhancement wait bounds and the fallback page probe
//   - Workflow: engine polling intervals
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
//   - Demo: payment/auth gate bypass
//   - Library: ring-buffer caps for saved projects, posts, and activity
type Config struct {
	Paths         Paths         `toml:"paths"`
	Backend       Backend       `toml:"backend"`
	Auth          Auth          `toml:"auth"`
	Analysis      Analysis      `toml:"analysis"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Demo          Demo          `toml:"demo"`
	Library       Library       `toml:"library"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autoblog/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autoblog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AuthBaseURL returns the auth service base URL, falling back to the backend.
func (c *Config) AuthBaseURL() string {
	if url := strings.TrimSpace(c.Auth.BaseURL); url != "" {
		return url
	}
	return strings.TrimSpace(c.Backend.BaseURL)
}

// DemoEnabled reports whether gate bypass is active, from config or the
// AUTOBLOG_DEMO_MODE environment variable.
func (c *Config) DemoEnabled() bool {
	if c.Demo.Enabled {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(os.Getenv("AUTOBLOG_DEMO_MODE")), "true")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
