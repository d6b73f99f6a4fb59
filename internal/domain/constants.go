package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
	// RecordFilePermissions is the permission for pid/meta record files (rw-r--r--)
	RecordFilePermissions = 0o644
)

// Network defaults
const (
	// DefaultServerHost is the loopback address the service binds to
	DefaultServerHost = "127.0.0.1"
	// DefaultServerPort is the default completion service port
	DefaultServerPort = 8765
)

// Timeout and duration constants
const (
	// DefaultRemoteTimeout bounds the orchestrator's first remote attempt
	DefaultRemoteTimeout = 3 * time.Second
	// DefaultRetryTimeout bounds the retry after an auto-start
	DefaultRetryTimeout = 6 * time.Second
	// HealthProbeTimeout bounds a single /health call used as a liveness probe
	HealthProbeTimeout = 1 * time.Second
	// GracefulStopTimeout is the polling window after SIGTERM
	GracefulStopTimeout = 3 * time.Second
	// ForcedStopTimeout is the polling window after SIGKILL
	ForcedStopTimeout = 2 * time.Second
	// StopPollInterval is the sleep between liveness polls during stop
	StopPollInterval = 200 * time.Millisecond
	// DefaultCacheTTL is how long a cached suggestion stays valid
	DefaultCacheTTL = 5 * time.Minute
)

// Prompt and history limits
const (
	// MaxHistoryLines is the most history entries embedded in a prompt
	MaxHistoryLines = 10
	// MaxCommandDisplayLength is the truncation length for history entries
	MaxCommandDisplayLength = 20
	// MaxCleanedHistoryLines caps the cleaned shell-history file
	MaxCleanedHistoryLines = 1000
	// TruncatedPromptLength is the hard cut applied to over-budget prompts
	TruncatedPromptLength = 100
)

// Model defaults
const (
	// DefaultContextSize is the engine context window in tokens
	DefaultContextSize = 1024
	// DefaultReservedTokens is the margin kept free for generation
	DefaultReservedTokens = 100
	// DefaultMaxTokens is the generation length cap
	DefaultMaxTokens = 80
	// DefaultThreads is the engine thread count
	DefaultThreads = 4
	// DefaultSeed fixes engine sampling for reproducible output
	DefaultSeed = 42
	// DefaultTemperature keeps generation near-deterministic
	DefaultTemperature = 0.01
)

// Suggestion history constants
const (
	// DefaultHistoryLimit is the default number of records to display
	DefaultHistoryLimit = 20
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 100
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
