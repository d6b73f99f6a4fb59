package domain

import (
	"fmt"
	"sort"
	"strings"
)

// CommandKind identifies one of the supported completion prefixes. The set is
// closed: requests for any other prefix are rejected before they reach the
// inference layer.
type CommandKind string

const (
	CommandSSH     CommandKind = "ssh"
	CommandLS      CommandKind = "ls"
	CommandCD      CommandKind = "cd"
	CommandGit     CommandKind = "git"
	CommandDocker  CommandKind = "docker"
	CommandKinit   CommandKind = "kinit"
	CommandKubectl CommandKind = "kubectl"
)

// staticFallbacks maps each supported prefix to its deterministic default
// suggestion, used whenever inference is unavailable or invalid.
var staticFallbacks = map[CommandKind]string{
	CommandSSH:     "ssh root@192.168.1.1",
	CommandLS:      "ls -l",
	CommandCD:      "cd ~",
	CommandGit:     "git status",
	CommandDocker:  "docker ps -a",
	CommandKinit:   "kinit yourname@DOMAIN.COM",
	CommandKubectl: "kubectl get pods",
}

// KindForPrefix resolves a raw prefix string against the supported set.
func KindForPrefix(prefix string) (CommandKind, bool) {
	kind := CommandKind(prefix)
	_, ok := staticFallbacks[kind]
	return kind, ok
}

// SupportedPrefixes returns the completion vocabulary in sorted order.
func SupportedPrefixes() []string {
	prefixes := make([]string, 0, len(staticFallbacks))
	for kind := range staticFallbacks {
		prefixes = append(prefixes, string(kind))
	}
	sort.Strings(prefixes)
	return prefixes
}

// Prefix returns the leading word this kind completes.
func (k CommandKind) Prefix() string {
	return string(k)
}

// StaticFallback returns the prefix's default suggestion.
func (k CommandKind) StaticFallback() string {
	return staticFallbacks[k]
}

// ClipboardUsable reports whether the clipboard may participate in a
// suggestion for this prefix. Combinations outside these rules are rejected
// so an unrelated clipboard never leaks into a command.
func (k CommandKind) ClipboardUsable(clip ClipboardContext) bool {
	value := strings.TrimSpace(clip.Value)
	switch k {
	case CommandSSH:
		return clip.Kind == ClipboardIP && !strings.Contains(value, "/") && !strings.Contains(value, " ")
	case CommandCD:
		return clip.Kind == ClipboardPath && value != ""
	case CommandGit:
		return clip.Kind == ClipboardText && value != ""
	default:
		return false
	}
}

// TemplatedFallback builds the clipboard-derived suggestion for this prefix.
// Callers must check ClipboardUsable first; for a non-usable clipboard the
// static fallback is returned unchanged.
func (k CommandKind) TemplatedFallback(clip ClipboardContext) string {
	if !k.ClipboardUsable(clip) {
		return k.StaticFallback()
	}
	value := strings.TrimSpace(clip.Value)
	switch k {
	case CommandSSH:
		return fmt.Sprintf("ssh root@%s", value)
	case CommandCD:
		return fmt.Sprintf("cd %s", value)
	case CommandGit:
		return fmt.Sprintf("git add %s", value)
	default:
		return k.StaticFallback()
	}
}

// ClipboardRule returns the prompt rule describing when the clipboard may be
// used for this prefix.
func (k CommandKind) ClipboardRule() string {
	switch k {
	case CommandSSH:
		return "use the clipboard only when it is an IP or hostname; never paths, spaces, or values containing \"/\"; ignore it otherwise. Format example: ssh root@<host>"
	case CommandCD:
		return "use the clipboard only when it is a path starting with \"/\" or \"~\"; never IPs or plain text; ignore it otherwise"
	case CommandGit:
		return "the clipboard is usable when it is non-empty text; build a related subcommand (add, checkout, commit) but always start with \"git\""
	default:
		return "ignore the clipboard; when it is unusable, never splice it into the command"
	}
}
