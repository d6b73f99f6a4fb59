// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces allow the application to remain
// independent of specific implementations like the inference engine, the
// operating system's process table, or the CLI framework.
package ports

import (
	"context"
	"syscall"

	"github.com/doeshing/zai-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.zai/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// GenerationParams bound a single inference call.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	Stop        []string
	Seed        int
}

// Engine is the opaque, expensive, stateful inference resource. Infer blocks
// for the duration of generation; implementations are not safe for concurrent
// use and callers must serialize access.
type Engine interface {
	Infer(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Close()
}

// EngineFactory builds inference engines. Construction pays the full
// model-load cost, so callers create at most one engine per process.
type EngineFactory interface {
	New(ctx context.Context, cfg domain.Config) (Engine, error)
}

// ClipboardReader provides access to the system clipboard.
type ClipboardReader interface {
	Read() (string, error)
	Enabled() bool
}

// ProcessInspector abstracts the operating system's process and port tables
// so liveness probes can be mocked in tests.
type ProcessInspector interface {
	// Alive reports whether the pid exists (signal-0 probe).
	Alive(pid int) bool
	// PidsOnPort lists pids holding the TCP port in LISTEN state.
	PidsOnPort(port int) []int
	// PidsMatching lists pids whose command line contains the pattern,
	// excluding the calling process.
	PidsMatching(pattern string) []int
	// Signal delivers a signal to the pid.
	Signal(pid int, sig syscall.Signal) error
}

// SuggestionStore persists suggestion events for later inspection.
type SuggestionStore interface {
	Save(record domain.SuggestionRecord) error
	Records(limit int, search string) ([]domain.SuggestionRecord, error)
	Clear() error
	Path() string
}

// HistorySource supplies the recent cleaned shell history for a request.
// Missing history degrades to an empty slice, never an error.
type HistorySource interface {
	Recent(max int) []string
}

// ServerLauncher starts the completion service as a detached process.
// Fire-and-forget: the returned error covers spawn failures only.
type ServerLauncher interface {
	Launch() error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
