package domain

import "time"

// CompletionRequest is the wire shape of a single completion call. History is
// ordered oldest to newest and already pre-filtered to at most a handful of
// lines by the client.
type CompletionRequest struct {
	Prefix    string           `json:"prefix"`
	Clipboard ClipboardContext `json:"clipboard"`
	History   []string         `json:"history"`
}

// CompletionResponse carries the suggested command. The suggestion is
// guaranteed non-empty for a well-formed request because validation always
// degrades to the composer's fallback.
type CompletionResponse struct {
	Suggestion string `json:"suggestion"`
}

// SuggestionSource records which path produced a suggestion.
type SuggestionSource string

const (
	SourceServer   SuggestionSource = "server"
	SourceLocal    SuggestionSource = "local"
	SourceFallback SuggestionSource = "fallback"
	SourceCache    SuggestionSource = "cache"
)

// SuggestionRecord is one persisted suggestion event.
type SuggestionRecord struct {
	Timestamp     time.Time        `json:"timestamp"`
	Prefix        string           `json:"prefix"`
	ClipboardKind ClipboardKind    `json:"clipboard_kind"`
	Source        SuggestionSource `json:"source"`
	Suggestion    string           `json:"suggestion"`
	DurationMS    int64            `json:"duration_ms"`
}
