package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/pkg/logger"
	"github.com/doeshing/zai-go/internal/ports"
)

type stubEngine struct {
	output string
	err    error

	mu      sync.Mutex
	active  int32
	overlap atomic.Bool
	calls   int
	delay   time.Duration
	closed  bool
}

func (e *stubEngine) Infer(ctx context.Context, prompt string, params ports.GenerationParams) (string, error) {
	if atomic.AddInt32(&e.active, 1) > 1 {
		e.overlap.Store(true)
	}
	defer atomic.AddInt32(&e.active, -1)

	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return e.output, e.err
}

func (e *stubEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

type stubFactory struct {
	engine ports.Engine
	err    error

	mu    sync.Mutex
	built int
}

func (f *stubFactory) New(context.Context, domain.Config) (ports.Engine, error) {
	f.mu.Lock()
	f.built++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

func newTestGateway(engine *stubEngine) (*Gateway, *stubFactory) {
	factory := &stubFactory{engine: engine}
	return NewGateway(domain.Config{}, factory, logger.NewStd(false)), factory
}

func TestGatewayAcceptsValidEngineOutput(t *testing.T) {
	gw, _ := newTestGateway(&stubEngine{output: "git log --oneline"})
	suggestion, source, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "git"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if suggestion != "git log --oneline" {
		t.Fatalf("suggestion = %q", suggestion)
	}
	if source != domain.SourceLocal {
		t.Fatalf("source = %q, want %q", source, domain.SourceLocal)
	}
}

func TestGatewayRejectsUnknownPrefix(t *testing.T) {
	gw, _ := newTestGateway(&stubEngine{output: "anything"})
	if _, _, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "frobnicate"}); err == nil {
		t.Fatal("expected error for unknown prefix")
	}
}

func TestGatewayFallsBackOnInvalidOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty output", ""},
		{"bare prefix", "git"},
		{"wrong prefix", "ls -la"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _ := newTestGateway(&stubEngine{output: tt.output})
			suggestion, source, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "git"})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if suggestion != "git status" {
				t.Fatalf("suggestion = %q, want static fallback", suggestion)
			}
			if source != domain.SourceFallback {
				t.Fatalf("source = %q, want %q", source, domain.SourceFallback)
			}
		})
	}
}

func TestGatewayTrustsEngineOutputEchoingClipboardIP(t *testing.T) {
	// "ssh -p 2222 root@10.9.8.7 uptime" is longer than the templated
	// fallback; it is accepted because it echoes the verified IP.
	gw, _ := newTestGateway(&stubEngine{output: "ssh -p 2222 root@10.9.8.7 uptime"})
	req := domain.CompletionRequest{
		Prefix:    "ssh",
		Clipboard: domain.ClipboardContext{Kind: domain.ClipboardIP, Value: "10.9.8.7"},
	}
	suggestion, _, err := gw.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if suggestion != "ssh -p 2222 root@10.9.8.7 uptime" {
		t.Fatalf("suggestion = %q, want engine output accepted", suggestion)
	}
}

func TestGatewayConvertsEngineErrorToFallback(t *testing.T) {
	gw, _ := newTestGateway(&stubEngine{err: errors.New("engine exploded")})
	suggestion, source, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "docker"})
	if err != nil {
		t.Fatalf("engine failures must not surface, got %v", err)
	}
	if suggestion != "docker ps -a" || source != domain.SourceFallback {
		t.Fatalf("got (%q, %q), want docker fallback", suggestion, source)
	}
}

func TestGatewayConvertsFactoryErrorToFallback(t *testing.T) {
	factory := &stubFactory{err: errors.New("model file missing")}
	gw := NewGateway(domain.Config{}, factory, logger.NewStd(false))
	suggestion, source, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "kubectl"})
	if err != nil {
		t.Fatalf("factory failures must not surface, got %v", err)
	}
	if suggestion != "kubectl get pods" || source != domain.SourceFallback {
		t.Fatalf("got (%q, %q), want kubectl fallback", suggestion, source)
	}
}

func TestGatewaySerializesConcurrentInference(t *testing.T) {
	engine := &stubEngine{output: "git status -sb", delay: 5 * time.Millisecond}
	gw, factory := newTestGateway(engine)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suggestion, _, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "git"})
			if err != nil {
				t.Errorf("Complete() error = %v", err)
			}
			if suggestion == "" {
				t.Error("got empty suggestion")
			}
		}()
	}
	wg.Wait()

	if engine.overlap.Load() {
		t.Fatal("observed overlapping inference executions")
	}
	if engine.calls != workers {
		t.Fatalf("engine calls = %d, want %d", engine.calls, workers)
	}
	if factory.built != 1 {
		t.Fatalf("engine built %d times, want exactly 1", factory.built)
	}
}

func TestGatewayCloseReleasesEngine(t *testing.T) {
	engine := &stubEngine{output: "ls -l"}
	gw, _ := newTestGateway(engine)
	if _, _, err := gw.Complete(context.Background(), domain.CompletionRequest{Prefix: "ls"}); err != nil {
		t.Fatal(err)
	}
	gw.Close()
	if !engine.closed {
		t.Fatal("Close() did not release the engine")
	}
}

func TestValidateOutputTable(t *testing.T) {
	kind := domain.CommandGit
	for i, tt := range []struct {
		raw      string
		want     string
		accepted bool
	}{
		{"git diff", "git diff", true},
		{"  git diff  ", "git diff", true},
		{"git", "git status", false},
		{"", "git status", false},
		{"echo git", "git status", false},
	} {
		got, accepted := validateOutput(kind, domain.ClipboardContext{}, tt.raw, kind.StaticFallback())
		if got != tt.want || accepted != tt.accepted {
			t.Errorf("case %d: validateOutput(%q) = (%q, %v), want (%q, %v)", i, tt.raw, got, accepted, tt.want, tt.accepted)
		}
	}
}
