package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

func TestInferParsesCompletionResponse(t *testing.T) {
	var seen completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionResponse{Content: "git status -sb"})
	}))
	defer srv.Close()

	engine := &LlamaEngine{baseURL: srv.URL, client: srv.Client()}
	got, err := engine.Infer(context.Background(), "prompt text", ports.GenerationParams{
		MaxTokens:   80,
		Temperature: 0.01,
		Stop:        []string{"\n"},
		Seed:        42,
	})
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	if got != "git status -sb" {
		t.Fatalf("Infer() = %q", got)
	}
	if seen.Prompt != "prompt text" || seen.NPredict != 80 || seen.Seed != 42 {
		t.Fatalf("unexpected request forwarded to engine: %+v", seen)
	}
}

func TestInferSurfacesEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	engine := &LlamaEngine{baseURL: srv.URL, client: srv.Client()}
	if _, err := engine.Infer(context.Background(), "p", ports.GenerationParams{}); err == nil {
		t.Fatal("expected error from unhealthy engine")
	}
}

func TestFactoryRejectsMissingModel(t *testing.T) {
	factory := NewFactory(nil)

	cfg := domain.Config{}
	if _, err := factory.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unset model path")
	}

	cfg.Model.Path = "/nonexistent/model.gguf"
	if _, err := factory.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing model file")
	}
}
