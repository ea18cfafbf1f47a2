package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	if err := c.normalizeAuth(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeWorkflow()
	c.normalizeLibrary()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendBaseURL
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeout
	}
	if c.Backend.RetryMaxAttempts <= 0 {
		c.Backend.RetryMaxAttempts = defaultRetryMaxAttempts
	}
}

func (c *Config) normalizeAuth() error {
	c.Auth.BaseURL = strings.TrimRight(strings.TrimSpace(c.Auth.BaseURL), "/")
	if strings.TrimSpace(c.Auth.TokenPath) == "" {
		c.Auth.TokenPath = defaultTokenPath
	}
	var err error
	if c.Auth.TokenPath, err = expandPath(c.Auth.TokenPath); err != nil {
		return fmt.Errorf("auth.token_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.EnhancementMaxAttempts <= 0 {
		c.Analysis.EnhancementMaxAttempts = defaultEnhancementMaxAttempts
	}
	if c.Analysis.EnhancementBaseDelayMS <= 0 {
		c.Analysis.EnhancementBaseDelayMS = defaultEnhancementBaseDelayMS
	}
	if c.Analysis.EnhancementMaxDelayMS <= 0 {
		c.Analysis.EnhancementMaxDelayMS = defaultEnhancementMaxDelayMS
	}
	if c.Analysis.ProbeTimeoutSeconds <= 0 {
		c.Analysis.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultWorkflowPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultWorkflowErrorRetryInterval
	}
}

func (c *Config) normalizeLibrary() {
	if c.Library.MaxProjects <= 0 {
		c.Library.MaxProjects = defaultMaxProjects
	}
	if c.Library.MaxPosts <= 0 {
		c.Library.MaxPosts = defaultMaxPosts
	}
	if c.Library.MaxActivities <= 0 {
		c.Library.MaxActivities = defaultMaxActivities
	}
	if c.Library.SnapshotTTLHours <= 0 {
		c.Library.SnapshotTTLHours = defaultSnapshotTTLHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
