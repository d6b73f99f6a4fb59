package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/zai-go/assets"
	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/pkg/filesystem"
	"github.com/doeshing/zai-go/internal/ports"
)

// FileLoader loads YAML configuration from ~/.zai/config.yaml (overridable via
// ZAI_CONFIG). Individual keys can be overridden through ZAI_* environment
// variables; env always wins over the file.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeConfig(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return applyEnvOverrides(cfg), nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return applyEnvOverrides(hydrateDefaults(cfg)), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	cfg := defaultConfig()
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}
	if err := writeConfig(path, cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("ZAI_CONFIG"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.DataDir(), "config.yaml")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeConfig(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

func defaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// Fallback to a minimal config if the embedded YAML is corrupted.
		cfg = domain.Config{ConfigFormatVersion: "1"}
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = domain.DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = domain.DefaultServerPort
	}
	if cfg.Model.Threads <= 0 {
		cfg.Model.Threads = domain.DefaultThreads
	}
	if cfg.Model.ContextSize <= 0 {
		cfg.Model.ContextSize = domain.DefaultContextSize
	}
	if cfg.Model.ReservedTokens <= 0 {
		cfg.Model.ReservedTokens = domain.DefaultReservedTokens
	}
	if cfg.Model.MaxTokens <= 0 {
		cfg.Model.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.Model.Temperature <= 0 {
		cfg.Model.Temperature = domain.DefaultTemperature
	}
	if cfg.Model.Seed == 0 {
		cfg.Model.Seed = domain.DefaultSeed
	}
	if len(cfg.Model.Stop) == 0 {
		cfg.Model.Stop = []string{"\n", "#", ";"}
	}
	cfg.Model.Path = filesystem.ExpandPath(cfg.Model.Path)
	if cfg.Client.RemoteTimeoutSecs <= 0 {
		cfg.Client.RemoteTimeoutSecs = int(domain.DefaultRemoteTimeout.Seconds())
	}
	if cfg.Client.RetryTimeoutSecs <= 0 {
		cfg.Client.RetryTimeoutSecs = int(domain.DefaultRetryTimeout.Seconds())
	}
	if cfg.History.File == "" {
		cfg.History.File = filepath.Join(filesystem.DataDir(), "data", "history.txt")
	} else {
		cfg.History.File = filesystem.ExpandPath(cfg.History.File)
	}
	if cfg.History.MaxLines <= 0 {
		cfg.History.MaxLines = domain.MaxHistoryLines
	}
	if cfg.History.MaxCommandLength <= 0 {
		cfg.History.MaxCommandLength = domain.MaxCommandDisplayLength
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	return cfg
}

// applyEnvOverrides lets ZAI_* environment variables win over file values, so
// shell integration can reconfigure the client without touching the file.
func applyEnvOverrides(cfg domain.Config) domain.Config {
	if host := os.Getenv("ZAI_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port, ok := envInt("ZAI_SERVER_PORT"); ok {
		cfg.Server.Port = port
	}
	if path := os.Getenv("ZAI_MODEL_PATH"); path != "" {
		cfg.Model.Path = filesystem.ExpandPath(path)
	}
	if threads, ok := envInt("ZAI_THREADS"); ok {
		cfg.Model.Threads = threads
	}
	if raw := os.Getenv("ZAI_AUTO_START_SERVER"); raw != "" {
		enabled := raw != "0" && !strings.EqualFold(raw, "false")
		cfg.Client.AutoStartServer = &enabled
	}
	if file := os.Getenv("ZAI_HISTORY_FILE"); file != "" {
		cfg.History.File = filesystem.ExpandPath(file)
	}
	return cfg
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// DefaultConfig exposes the bootstrap configuration template.
func DefaultConfig() domain.Config {
	return defaultConfig()
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
