package config

const (
	defaultDataDir   = "~/.local/share/autoblog"
	defaultLogDir    = "~/.local/share/autoblog/logs"
	defaultExportDir = "~/autoblog-exports"
	defaultTokenPath = "~/.config/autoblog/tokens.json"

	defaultBackendBaseURL   = "http://localhost:3001"
	defaultBackendTimeout   = 60
	defaultRetryMaxAttempts = 5

	defaultEnhancementMaxAttempts = 8
	defaultEnhancementBaseDelayMS = 500
	defaultEnhancementMaxDelayMS  = 8000
	defaultProbeTimeoutSeconds    = 10

	defaultWorkflowPollInterval       = 2
	defaultWorkflowErrorRetryInterval = 10

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultMaxProjects      = 50
	defaultMaxPosts         = 100
	defaultMaxActivities    = 1000
	defaultSnapshotTTLHours = 24
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Backend: Backend{
			BaseURL:          defaultBackendBaseURL,
			TimeoutSeconds:   defaultBackendTimeout,
			RetryMaxAttempts: defaultRetryMaxAttempts,
		},
		Auth: Auth{
			TokenPath: defaultTokenPath,
		},
		Analysis: Analysis{
			EnhancementMaxAttempts: defaultEnhancementMaxAttempts,
			EnhancementBaseDelayMS: defaultEnhancementBaseDelayMS,
			EnhancementMaxDelayMS:  defaultEnhancementMaxDelayMS,
			ProbeEnabled:           true,
			ProbeTimeoutSeconds:    defaultProbeTimeoutSeconds,
		},
		Workflow: Workflow{
			PollInterval:       defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Analysis:       true,
			Content:        true,
			Export:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Library: Library{
			MaxProjects:      defaultMaxProjects,
			MaxPosts:         defaultMaxPosts,
			MaxActivities:    defaultMaxActivities,
			SnapshotTTLHours: defaultSnapshotTTLHours,
		},
	}
}
