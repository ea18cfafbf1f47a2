package testsupport

import (
	"path/filepath"
	"testing"

	"autoblog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Auth.TokenPath = filepath.Join(base, "auth.json")
	cfgVal.Backend.BaseURL = "http://127.0.0.1:0"
	cfgVal.Backend.RetryMaxAttempts = 1
	cfgVal.Analysis.ProbeEnabled = false
	cfgVal.Analysis.EnhancementBaseDelayMS = 1
	cfgVal.Analysis.EnhancementMaxDelayMS = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackendURL points the test config at the provided backend base URL,
// usually an httptest server.
func WithBackendURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = baseURL
	}
}

// WithDemoMode toggles demo mode on the test config.
func WithDemoMode(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Demo.Enabled = enabled
	}
}
