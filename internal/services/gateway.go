package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

// Gateway owns the shared inference engine and serializes every call against
// it. The engine is loaded lazily behind an init lock, separate from the
// execution lock, so concurrent first requests load exactly one instance and
// later requests queue on inference only.
type Gateway struct {
	cfg      domain.Config
	factory  ports.EngineFactory
	composer *Composer
	logger   ports.Logger

	initMu  sync.Mutex
	inferMu sync.Mutex
	engine  ports.Engine
}

// NewGateway builds a gateway. The engine is not loaded until the first call.
func NewGateway(cfg domain.Config, factory ports.EngineFactory, logger ports.Logger) *Gateway {
	return &Gateway{
		cfg:      cfg,
		factory:  factory,
		composer: NewComposer(cfg),
		logger:   logger,
	}
}

// Complete produces a suggestion for the request. The only error condition is
// an unknown prefix; every inference-side failure degrades to the composed
// fallback instead.
func (g *Gateway) Complete(ctx context.Context, req domain.CompletionRequest) (string, domain.SuggestionSource, error) {
	kind, ok := domain.KindForPrefix(req.Prefix)
	if !ok {
		return "", "", fmt.Errorf("unsupported prefix %q", req.Prefix)
	}

	prompt, fallback := g.composer.Compose(kind, req.Clipboard, req.History)

	engine, err := g.loadEngine(ctx)
	if err != nil {
		g.logger.Warn("engine unavailable, using fallback", map[string]interface{}{"error": err.Error()})
		return fallback, domain.SourceFallback, nil
	}

	g.inferMu.Lock()
	raw, err := engine.Infer(ctx, prompt, g.generationParams())
	g.inferMu.Unlock()
	if err != nil {
		g.logger.Warn("inference failed, using fallback", map[string]interface{}{"prefix": req.Prefix, "error": err.Error()})
		return fallback, domain.SourceFallback, nil
	}

	suggestion, accepted := validateOutput(kind, req.Clipboard, raw, fallback)
	if !accepted {
		return suggestion, domain.SourceFallback, nil
	}
	return suggestion, domain.SourceLocal, nil
}

// Close releases the engine if it was ever loaded.
func (g *Gateway) Close() {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.engine != nil {
		g.engine.Close()
		g.engine = nil
	}
}

func (g *Gateway) loadEngine(ctx context.Context) (ports.Engine, error) {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.engine != nil {
		return g.engine, nil
	}
	engine, err := g.factory.New(ctx, g.cfg)
	if err != nil {
		return nil, err
	}
	g.engine = engine
	return engine, nil
}

func (g *Gateway) generationParams() ports.GenerationParams {
	params := ports.GenerationParams{
		MaxTokens:   g.cfg.Model.MaxTokens,
		Temperature: g.cfg.Model.Temperature,
		Stop:        g.cfg.Model.Stop,
		Seed:        g.cfg.Model.Seed,
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = domain.DefaultMaxTokens
	}
	if params.Temperature <= 0 {
		params.Temperature = domain.DefaultTemperature
	}
	if len(params.Stop) == 0 {
		params.Stop = []string{"\n", "#", ";"}
	}
	return params
}

// validateOutput accepts raw engine output only when it is a plausible
// command for the prefix; otherwise the fallback wins. The second return
// reports whether the raw output was accepted.
func validateOutput(kind domain.CommandKind, clip domain.ClipboardContext, raw, fallback string) (string, bool) {
	suggestion := strings.TrimSpace(raw)
	if suggestion == "" || !strings.HasPrefix(suggestion, kind.Prefix()) {
		return fallback, false
	}
	// Once the engine echoes the verified clipboard IP, trust it as-is.
	if kind == domain.CommandSSH && kind.ClipboardUsable(clip) {
		if value := strings.TrimSpace(clip.Value); value != "" && strings.Contains(suggestion, value) {
			return suggestion, true
		}
	}
	if suggestion == kind.Prefix() {
		return fallback, false
	}
	return suggestion, true
}
