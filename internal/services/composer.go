package services

import (
	"fmt"
	"strings"

	"github.com/doeshing/zai-go/internal/domain"
)

// Composer builds the inference prompt and the deterministic fallback for a
// completion request. It is pure: the same inputs always yield the same
// prompt and fallback.
type Composer struct {
	maxHistoryLines  int
	maxCommandLength int
	tokenBudget      int
}

// NewComposer derives composer limits from config, falling back to defaults
// for missing values.
func NewComposer(cfg domain.Config) *Composer {
	c := &Composer{
		maxHistoryLines:  cfg.History.MaxLines,
		maxCommandLength: cfg.History.MaxCommandLength,
		tokenBudget:      cfg.Model.PromptTokenBudget(),
	}
	if c.maxHistoryLines <= 0 {
		c.maxHistoryLines = domain.MaxHistoryLines
	}
	if c.maxCommandLength <= 0 {
		c.maxCommandLength = domain.MaxCommandDisplayLength
	}
	if c.tokenBudget <= 0 {
		c.tokenBudget = domain.DefaultContextSize - domain.DefaultReservedTokens
	}
	return c
}

// Compose returns the prompt to send to the engine and the fallback command
// returned when inference is unavailable or invalid. The fallback always
// starts with the prefix.
func (c *Composer) Compose(kind domain.CommandKind, clip domain.ClipboardContext, history []string) (prompt, fallback string) {
	filtered := c.FilterHistory(kind, history)
	fallback = kind.TemplatedFallback(clip)

	usable := kind.ClipboardUsable(clip)
	clipValue := ""
	if usable {
		clipValue = strings.TrimSpace(clip.Value)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: given the prefix %q and the clipboard, produce one Linux command starting with %q.\n", kind.Prefix(), kind.Prefix())
	fmt.Fprintf(&b, "Clipboard kind: %s; usable: %s; value: %s\n", clip.Kind, yesNo(usable), clipValue)
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "1. The command must start with %q.\n", kind.Prefix())
	fmt.Fprintf(&b, "2. %s.\n", kind.ClipboardRule())
	b.WriteString("3. When the clipboard is unusable, derive the command from history or the default; never splice the clipboard in.\n")
	b.WriteString("4. Output the complete command only: no explanation, no newline, no comment.\n")
	fmt.Fprintf(&b, "5. Recent history for reference: %s\n", formatHistory(filtered))

	return c.fitBudget(b.String()), fallback
}

// FilterHistory keeps only entries starting with the prefix, truncates each
// for display, and returns at most the last maxHistoryLines entries in
// chronological order.
func (c *Composer) FilterHistory(kind domain.CommandKind, history []string) []string {
	var kept []string
	for _, entry := range history {
		if strings.HasPrefix(entry, kind.Prefix()) {
			kept = append(kept, truncate(entry, c.maxCommandLength))
		}
	}
	if len(kept) > c.maxHistoryLines {
		kept = kept[len(kept)-c.maxHistoryLines:]
	}
	return kept
}

// fitBudget hard-truncates prompts that exceed the token budget. This trades
// prompt quality for a guarantee that composition never fails.
func (c *Composer) fitBudget(prompt string) string {
	if estimateTokens(prompt) <= c.tokenBudget {
		return prompt
	}
	runes := []rune(prompt)
	if len(runes) <= domain.TruncatedPromptLength {
		return prompt
	}
	return string(runes[:domain.TruncatedPromptLength])
}

// estimateTokens approximates the engine's tokenizer. Four bytes per token is
// a conservative ratio for the shell-command text we compose.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func formatHistory(entries []string) string {
	if len(entries) == 0 {
		return "(none)"
	}
	return strings.Join(entries, "; ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
