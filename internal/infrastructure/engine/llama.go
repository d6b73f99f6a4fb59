// Package engine adapts a local llama.cpp llama-server process to the
// ports.Engine contract. Construction spawns the server with the configured
// model and waits for it to become healthy; this is the expensive model-load
// step the rest of the system works hard to amortize.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

const (
	// loadTimeout bounds how long we wait for llama-server to answer /health
	// after spawn. Large models on cold page cache can take most of this.
	loadTimeout = 120 * time.Second

	healthPollInterval = 250 * time.Millisecond
)

// LlamaEngine drives one llama-server child process over its HTTP API.
// Not safe for concurrent use; callers serialize Infer.
type LlamaEngine struct {
	baseURL string
	client  *http.Client
	cmd     *exec.Cmd
}

// Infer sends a completion request and returns the generated text.
func (e *LlamaEngine) Infer(ctx context.Context, prompt string, params ports.GenerationParams) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		NPredict:    params.MaxTokens,
		Temperature: params.Temperature,
		Stop:        params.Stop,
		Seed:        params.Seed,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("engine answered %s: %s", resp.Status, raw)
	}

	var decoded completionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("parse engine response: %w", err)
	}
	return decoded.Content, nil
}

// Close terminates the child server. Graceful first, then forceful; Close is
// safe to call when construction failed partway.
func (e *LlamaEngine) Close() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	_ = e.cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		_, _ = e.cmd.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = e.cmd.Process.Kill()
		<-done
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
	Seed        int      `json:"seed,omitempty"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// Factory builds LlamaEngine instances. Binary can be overridden for tests
// or non-PATH installs via ZAI_LLAMA_SERVER.
type Factory struct {
	Logger ports.Logger
	Binary string
}

// NewFactory returns a factory using the configured logger.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{Logger: logger, Binary: os.Getenv("ZAI_LLAMA_SERVER")}
}

// New spawns llama-server for the configured model and blocks until it is
// healthy or the load deadline passes.
func (f *Factory) New(ctx context.Context, cfg domain.Config) (ports.Engine, error) {
	if cfg.Model.Path == "" {
		return nil, fmt.Errorf("model path not configured")
	}
	if _, err := os.Stat(cfg.Model.Path); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.Model.Path)
	}

	binary := f.Binary
	if binary == "" {
		binary = "llama-server"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("llama-server binary not found: %w", err)
	}

	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("reserve engine port: %w", err)
	}

	cmd := exec.Command(resolved,
		"-m", cfg.Model.Path,
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(port),
		"--threads", strconv.Itoa(cfg.Model.Threads),
		"--ctx-size", strconv.Itoa(cfg.Model.ContextSize),
		"--seed", strconv.Itoa(cfg.Model.Seed),
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start llama-server: %w", err)
	}

	engine := &LlamaEngine{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		client:  &http.Client{},
		cmd:     cmd,
	}

	if f.Logger != nil {
		f.Logger.Info("loading model", map[string]interface{}{"model": cfg.Model.Path, "port": port})
	}
	if err := engine.waitHealthy(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("llama-server never became healthy: %w", err)
	}
	return engine, nil
}

func (e *LlamaEngine) waitHealthy(ctx context.Context) error {
	deadline := time.Now().Add(loadTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		probeCtx, cancel := context.WithTimeout(ctx, domain.HealthProbeTimeout)
		req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, e.baseURL+"/health", nil)
		if err == nil {
			if resp, err := e.client.Do(req); err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					cancel()
					return nil
				}
			}
		}
		cancel()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthPollInterval):
		}
	}
	return fmt.Errorf("health deadline exceeded")
}

func freePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

var _ ports.EngineFactory = (*Factory)(nil)
var _ ports.Engine = (*LlamaEngine)(nil)
