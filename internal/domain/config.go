package domain

import (
	"fmt"
	"time"
)

// Config is the root configuration document stored at ~/.zai/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Server              ServerSettings  `yaml:"server"`
	Model               ModelSettings   `yaml:"model"`
	Client              ClientSettings  `yaml:"client"`
	History             HistorySettings `yaml:"history"`
	Cache               CacheSettings   `yaml:"cache"`
}

// ServerSettings describe where the completion service listens.
type ServerSettings struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the configured host:port.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the HTTP base URL of the service.
func (s ServerSettings) BaseURL() string {
	return fmt.Sprintf("http://%s", s.Addr())
}

// ModelSettings configure the underlying inference engine.
type ModelSettings struct {
	Path           string   `yaml:"path"`
	Threads        int      `yaml:"threads"`
	ContextSize    int      `yaml:"context_size"`
	ReservedTokens int      `yaml:"reserved_tokens"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    float64  `yaml:"temperature"`
	Seed           int      `yaml:"seed"`
	Stop           []string `yaml:"stop"`
}

// PromptTokenBudget returns the token budget available to composed prompts.
func (m ModelSettings) PromptTokenBudget() int {
	return m.ContextSize - m.ReservedTokens
}

// ClientSettings control the per-invocation orchestrator.
type ClientSettings struct {
	AutoStartServer   *bool `yaml:"auto_start_server"`
	RemoteTimeoutSecs int   `yaml:"remote_timeout_seconds"`
	RetryTimeoutSecs  int   `yaml:"retry_timeout_seconds"`
}

// AutoStart reports whether the orchestrator may launch the service itself.
func (c ClientSettings) AutoStart() bool {
	if c.AutoStartServer == nil {
		return true
	}
	return *c.AutoStartServer
}

// RemoteTimeout is the budget for the first remote attempt.
func (c ClientSettings) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSecs) * time.Second
}

// RetryTimeout is the budget for the retry after an auto-start.
func (c ClientSettings) RetryTimeout() time.Duration {
	return time.Duration(c.RetryTimeoutSecs) * time.Second
}

// HistorySettings locate the cleaned shell-history file consumed by clients.
type HistorySettings struct {
	File             string `yaml:"file"`
	MaxLines         int    `yaml:"max_lines"`
	MaxCommandLength int    `yaml:"max_command_length"`
}

// CacheSettings tune the in-memory suggestion cache on the server.
type CacheSettings struct {
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// TTLDuration parses the cache TTL, falling back to the default when the
// configured value is empty or malformed.
func (c CacheSettings) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return DefaultCacheTTL
	}
	return d
}
