package cache

import (
	"testing"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
)

func TestSuggestionCacheRoundTrip(t *testing.T) {
	c := NewSuggestionCache(time.Minute, 10)
	defer c.Stop()

	req := domain.CompletionRequest{
		Prefix:    "git",
		Clipboard: domain.ClipboardContext{Kind: domain.ClipboardText, Value: "main.go"},
		History:   []string{"git status"},
	}

	if _, ok := c.Get(req); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Set(req, "git add main.go")
	got, ok := c.Get(req)
	if !ok || got != "git add main.go" {
		t.Fatalf("Get() = (%q, %v)", got, ok)
	}
}

func TestSuggestionCacheKeyDiscriminates(t *testing.T) {
	base := domain.CompletionRequest{Prefix: "git", History: []string{"git status"}}

	variants := []domain.CompletionRequest{
		{Prefix: "ssh", History: []string{"git status"}},
		{Prefix: "git", History: []string{"git diff"}},
		{Prefix: "git", Clipboard: domain.ClipboardContext{Kind: domain.ClipboardText, Value: "x"}, History: []string{"git status"}},
	}
	for i, v := range variants {
		if Key(base) == Key(v) {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestSuggestionCacheExpires(t *testing.T) {
	c := NewSuggestionCache(20*time.Millisecond, 10)
	defer c.Stop()

	req := domain.CompletionRequest{Prefix: "ls"}
	c.Set(req, "ls -l")
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(req); ok {
		t.Fatal("entry should have expired")
	}
}
