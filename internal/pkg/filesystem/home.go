package filesystem

import (
	"os"
	"path/filepath"
	"strings"
)

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// ExpandPath resolves a leading "~/" against the user's home directory and
// cleans relative paths. Absolute paths pass through untouched.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		return UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(UserHomeDir(), path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}

// DataDir returns the zai state directory (~/.zai) or an override from
// ZAI_HOME. Callers create subdirectories as needed.
func DataDir() string {
	if dir := os.Getenv("ZAI_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(UserHomeDir(), ".zai")
}
