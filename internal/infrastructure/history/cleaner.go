// Package history handles shell-history ingestion and the persisted
// suggestion log.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/pkg/filesystem"
)

// zsh extended-history prefix: ": <start>:<elapsed>;"
var timestampPrefix = regexp.MustCompile(`^:\s*\d+:\d+;`)

// Cleaner turns a raw zsh history file into a deduplicated, parseable list of
// single-line commands, oldest first.
type Cleaner struct {
	parser *syntax.Parser
}

// NewCleaner builds a cleaner with a POSIX-ish shell parser.
func NewCleaner() *Cleaner {
	return &Cleaner{parser: syntax.NewParser()}
}

// Clean filters and normalizes raw history lines. Multiline continuations,
// comments, one-character lines, and lines the shell parser rejects are
// dropped. Duplicates keep their latest occurrence; the result is capped and
// stays in chronological order.
func (c *Cleaner) Clean(lines []string) []string {
	var commands []string
	for _, line := range lines {
		cleaned := timestampPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if cleaned == "" || len(cleaned) <= 1 {
			continue
		}
		if strings.HasPrefix(cleaned, "#") {
			continue
		}
		// Backslashes mark continuations of multiline commands, which are
		// useless as single-line suggestions.
		if strings.Contains(cleaned, `\`) {
			continue
		}
		if !c.parses(cleaned) {
			continue
		}
		commands = append(commands, cleaned)
	}

	// Dedupe keeping the newest occurrence, then restore old-to-new order.
	seen := make(map[string]bool, len(commands))
	var unique []string
	for i := len(commands) - 1; i >= 0; i-- {
		if seen[commands[i]] {
			continue
		}
		seen[commands[i]] = true
		unique = append(unique, commands[i])
		if len(unique) == domain.MaxCleanedHistoryLines {
			break
		}
	}
	for i, j := 0, len(unique)-1; i < j; i, j = i+1, j-1 {
		unique[i], unique[j] = unique[j], unique[i]
	}
	return unique
}

func (c *Cleaner) parses(command string) bool {
	_, err := c.parser.Parse(strings.NewReader(command), "")
	return err == nil
}

// Sync reads the zsh history at sourcePath, cleans it, and writes the result
// to destPath. Returns the number of commands written. A missing source is
// not an error; it yields an empty file.
func (c *Cleaner) Sync(sourcePath, destPath string) (int, error) {
	var lines []string
	data, err := os.ReadFile(sourcePath)
	switch {
	case err == nil:
		lines = strings.Split(string(data), "\n")
	case os.IsNotExist(err):
		// fresh shell, nothing to ingest
	default:
		return 0, fmt.Errorf("read %s: %w", sourcePath, err)
	}

	commands := c.Clean(lines)
	if err := os.MkdirAll(filepath.Dir(destPath), domain.DirectoryPermissions); err != nil {
		return 0, err
	}
	if err := os.WriteFile(destPath, []byte(strings.Join(commands, "\n")), domain.RecordFilePermissions); err != nil {
		return 0, fmt.Errorf("write %s: %w", destPath, err)
	}
	return len(commands), nil
}

// DefaultSourcePath returns the shell's own history file.
func DefaultSourcePath() string {
	if path := os.Getenv("HISTFILE"); path != "" {
		return filesystem.ExpandPath(path)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".zsh_history")
}
