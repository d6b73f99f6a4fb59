package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

// Orchestrator is the per-invocation client decision procedure: try the
// remote service, optionally start it and retry, and finally fall back to an
// in-process one-shot engine. It always yields a suggestion as long as local
// resources permit, trading latency for availability.
type Orchestrator struct {
	Config        domain.Config
	Launcher      ports.ServerLauncher
	EngineFactory ports.EngineFactory
	Logger        ports.Logger
	HTTPClient    *http.Client
	// BaseURL overrides the service address from config; used by tests.
	BaseURL string

	// startupGrace is the pause after a fire-and-forget launch before the
	// retry, giving the service time to bind.
	startupGrace time.Duration
}

// Result couples a suggestion with the path that produced it.
type Result struct {
	Suggestion string
	Source     domain.SuggestionSource
}

// Suggest runs the escalating procedure for one request.
func (o *Orchestrator) Suggest(ctx context.Context, req domain.CompletionRequest) (Result, error) {
	if _, ok := domain.KindForPrefix(req.Prefix); !ok {
		return Result{}, fmt.Errorf("unsupported prefix %q", req.Prefix)
	}

	if suggestion, err := o.requestServer(ctx, req, o.remoteTimeout()); err == nil {
		return Result{Suggestion: suggestion, Source: domain.SourceServer}, nil
	} else {
		o.logger().Debug("remote attempt failed", map[string]interface{}{"error": err.Error()})
	}

	if o.Config.Client.AutoStart() && o.Launcher != nil {
		if err := o.Launcher.Launch(); err != nil {
			o.logger().Warn("service auto-start failed", map[string]interface{}{"error": err.Error()})
		} else {
			o.sleepStartupGrace(ctx)
			if suggestion, err := o.requestServer(ctx, req, o.retryTimeout()); err == nil {
				return Result{Suggestion: suggestion, Source: domain.SourceServer}, nil
			} else {
				o.logger().Debug("retry after auto-start failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return o.localFallback(ctx, req)
}

// localFallback loads a private engine in-process and computes the suggestion
// directly, paying the full model-load cost for this single request.
func (o *Orchestrator) localFallback(ctx context.Context, req domain.CompletionRequest) (Result, error) {
	if o.EngineFactory == nil {
		return Result{}, fmt.Errorf("service unavailable and no local engine configured")
	}
	gateway := NewGateway(o.Config, o.EngineFactory, o.logger())
	defer gateway.Close()

	suggestion, source, err := gateway.Complete(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if source == domain.SourceLocal || source == domain.SourceFallback {
		return Result{Suggestion: suggestion, Source: source}, nil
	}
	return Result{Suggestion: suggestion, Source: domain.SourceLocal}, nil
}

func (o *Orchestrator) requestServer(ctx context.Context, req domain.CompletionRequest, timeout time.Duration) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, o.completeURL(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := o.httpClient().Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("service answered %s", resp.Status)
	}

	var decoded domain.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	suggestion := strings.TrimSpace(decoded.Suggestion)
	if suggestion == "" {
		return "", fmt.Errorf("service returned empty suggestion")
	}
	return suggestion, nil
}

func (o *Orchestrator) completeURL() string {
	base := o.BaseURL
	if base == "" {
		base = o.Config.Server.BaseURL()
	}
	return strings.TrimRight(base, "/") + "/complete"
}

func (o *Orchestrator) remoteTimeout() time.Duration {
	if t := o.Config.Client.RemoteTimeout(); t > 0 {
		return t
	}
	return domain.DefaultRemoteTimeout
}

func (o *Orchestrator) retryTimeout() time.Duration {
	if t := o.Config.Client.RetryTimeout(); t > 0 {
		return t
	}
	return domain.DefaultRetryTimeout
}

func (o *Orchestrator) sleepStartupGrace(ctx context.Context) {
	grace := o.startupGrace
	if grace <= 0 {
		grace = 500 * time.Millisecond
	}
	select {
	case <-time.After(grace):
	case <-ctx.Done():
	}
}

func (o *Orchestrator) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

func (o *Orchestrator) logger() ports.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
