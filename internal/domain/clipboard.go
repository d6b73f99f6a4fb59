// Package domain defines core business entities and value objects for ZAI.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures.
package domain

import (
	"os"
	"strings"
)

// ClipboardKind classifies clipboard text for prefix-specific handling.
type ClipboardKind string

const (
	ClipboardIP   ClipboardKind = "ip"
	ClipboardPath ClipboardKind = "path"
	ClipboardText ClipboardKind = "text"
)

// ClipboardContext is a classified snapshot of clipboard text.
// It is derived once per request and immutable after creation.
type ClipboardContext struct {
	Kind  ClipboardKind `json:"type"`
	Value string        `json:"value"`
}

// PathExists reports whether a string names an existing filesystem path.
// Injected into ClassifyWith so classification stays deterministic in tests.
type PathExists func(string) bool

func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Classify turns raw clipboard text into a ClipboardContext using the real
// filesystem for the path-existence check.
func Classify(raw string) ClipboardContext {
	return ClassifyWith(raw, statExists)
}

// ClassifyWith classifies raw clipboard text. Rules, in order: empty or
// whitespace-only is text with an empty value; text containing "." that does
// not name an existing path is treated as an IP or hostname; text starting
// with "/" or "~" is a path; everything else is plain text. Total, never
// fails.
func ClassifyWith(raw string, exists PathExists) ClipboardContext {
	if exists == nil {
		exists = statExists
	}
	content := strings.TrimSpace(raw)
	switch {
	case content == "":
		return ClipboardContext{Kind: ClipboardText, Value: ""}
	case strings.Contains(content, ".") && !exists(content):
		return ClipboardContext{Kind: ClipboardIP, Value: content}
	case strings.HasPrefix(content, "/") || strings.HasPrefix(content, "~"):
		return ClipboardContext{Kind: ClipboardPath, Value: content}
	default:
		return ClipboardContext{Kind: ClipboardText, Value: content}
	}
}
