// Package server exposes the completion pipeline over a local HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/infrastructure/cache"
	"github.com/doeshing/zai-go/internal/ports"
)

// Completer is the inference-side contract the HTTP layer delegates to.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, domain.SuggestionSource, error)
}

// CompletionService serves /health and /complete on a single address.
// Responses are always JSON; errors carry a machine-readable code so shell
// clients never have to parse prose.
type CompletionService struct {
	completer Completer
	cache     *cache.SuggestionCache
	store     ports.SuggestionStore
	logger    ports.Logger

	httpServer *http.Server
}

// New assembles the service. cache and store are optional; a nil cache
// disables memoization and a nil store disables suggestion logging.
func New(completer Completer, suggestionCache *cache.SuggestionCache, store ports.SuggestionStore, logger ports.Logger) *CompletionService {
	return &CompletionService{
		completer: completer,
		cache:     suggestionCache,
		store:     store,
		logger:    logger,
	}
}

// Handler returns the routing surface, exported so tests can drive it with
// httptest without binding a socket.
func (s *CompletionService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/complete", s.handleComplete)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// Serve accepts connections on the listener until Shutdown or a fatal error.
func (s *CompletionService) Serve(listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	err := s.httpServer.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the cache janitor.
func (s *CompletionService) Shutdown(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *CompletionService) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handleNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *CompletionService) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
}

func (s *CompletionService) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.handleNotFound(w, r)
		return
	}
	requestID := uuid.NewString()
	started := time.Now()

	var req domain.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("rejected malformed completion request", map[string]interface{}{
			"request_id": requestID,
			"remote":     r.RemoteAddr,
		})
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}

	kind, ok := domain.KindForPrefix(req.Prefix)
	if !ok {
		s.logger.Warn("rejected unsupported prefix", map[string]interface{}{
			"request_id": requestID,
			"prefix":     req.Prefix,
		})
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_prefix"})
		return
	}

	if s.cache != nil {
		if suggestion, hit := s.cache.Get(req); hit {
			s.logger.Debug("served cached suggestion", map[string]interface{}{
				"request_id": requestID,
				"prefix":     req.Prefix,
			})
			s.record(req, suggestion, domain.SourceCache, started)
			writeJSON(w, http.StatusOK, domain.CompletionResponse{Suggestion: suggestion})
			return
		}
	}

	suggestion, source, err := s.completer.Complete(r.Context(), req)
	if err != nil {
		// KindForPrefix already vetted the prefix, so a completer error here
		// means the pipeline itself broke.
		s.logger.Error("completion pipeline failed", err, map[string]interface{}{
			"request_id": requestID,
			"prefix":     req.Prefix,
		})
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_prefix"})
		return
	}

	if s.cache != nil && source != domain.SourceFallback {
		s.cache.Set(req, suggestion)
	}
	s.record(req, suggestion, source, started)

	s.logger.Info("served suggestion", map[string]interface{}{
		"request_id":  requestID,
		"prefix":      string(kind),
		"source":      string(source),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	writeJSON(w, http.StatusOK, domain.CompletionResponse{Suggestion: suggestion})
}

// record logs the served suggestion. Best effort: a broken store must never
// fail a completion.
func (s *CompletionService) record(req domain.CompletionRequest, suggestion string, source domain.SuggestionSource, started time.Time) {
	if s.store == nil {
		return
	}
	err := s.store.Save(domain.SuggestionRecord{
		Timestamp:     time.Now(),
		Prefix:        req.Prefix,
		ClipboardKind: req.Clipboard.Kind,
		Source:        source,
		Suggestion:    suggestion,
		DurationMS:    time.Since(started).Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("failed to log suggestion", map[string]interface{}{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
