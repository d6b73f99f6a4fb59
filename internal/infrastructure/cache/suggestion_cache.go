// Package cache memoizes served suggestions so repeated requests skip the
// inference queue entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/doeshing/zai-go/internal/domain"
)

// SuggestionCache is an in-memory TTL cache keyed by request fingerprint.
// Safe for concurrent use.
type SuggestionCache struct {
	cache *ttlcache.Cache[string, string]
}

// NewSuggestionCache builds a cache with the given TTL and capacity.
func NewSuggestionCache(ttl time.Duration, maxEntries int) *SuggestionCache {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = domain.DefaultMaxCacheEntries
	}
	c := ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithCapacity[string, string](uint64(maxEntries)),
	)
	go c.Start()
	return &SuggestionCache{cache: c}
}

// Get returns the cached suggestion for the request, if any.
func (c *SuggestionCache) Get(req domain.CompletionRequest) (string, bool) {
	item := c.cache.Get(Key(req))
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// Set stores the suggestion for the request.
func (c *SuggestionCache) Set(req domain.CompletionRequest, suggestion string) {
	c.cache.Set(Key(req), suggestion, ttlcache.DefaultTTL)
}

// Len reports the number of live entries.
func (c *SuggestionCache) Len() int {
	return c.cache.Len()
}

// Stop terminates the background expiry loop.
func (c *SuggestionCache) Stop() {
	c.cache.Stop()
}

// Key fingerprints a request. History participates verbatim: a different
// recent history legitimately changes the suggestion.
func Key(req domain.CompletionRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Prefix))
	h.Write([]byte{0})
	h.Write([]byte(req.Clipboard.Kind))
	h.Write([]byte{0})
	h.Write([]byte(req.Clipboard.Value))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(req.History, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
