package history

import (
	"os"
	"strings"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

// FileSource serves recent commands from the cleaned history file.
type FileSource struct {
	path string
}

// NewFileSource reads from the given cleaned history file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Recent returns up to max commands from the tail of the file, oldest first.
// A missing or unreadable file yields no history rather than an error; the
// completion pipeline degrades to fallbacks.
func (s *FileSource) Recent(max int) []string {
	if max <= 0 {
		max = domain.DefaultHistoryLimit
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var commands []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			commands = append(commands, trimmed)
		}
	}
	if len(commands) > max {
		commands = commands[len(commands)-max:]
	}
	return commands
}

var _ ports.HistorySource = (*FileSource)(nil)
