// Package clipboard reads the system clipboard using platform tools.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/doeshing/zai-go/internal/ports"
)

// Reader implements ports.ClipboardReader using platform-specific tools.
type Reader struct{}

// NewReader builds the clipboard helper.
func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Enabled() bool {
	switch runtime.GOOS {
	case "darwin", "linux":
		return true
	default:
		return false
	}
}

// Read returns the current clipboard text. Callers treat any failure as an
// empty clipboard rather than an error worth surfacing.
func (r *Reader) Read() (string, error) {
	if !r.Enabled() {
		return "", fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbpaste")
	default: // linux
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard", "-o")
		} else if _, err := exec.LookPath("wl-paste"); err == nil {
			cmd = exec.Command("wl-paste", "--no-newline")
		} else {
			return "", fmt.Errorf("clipboard utilities not found")
		}
	}
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

var _ ports.ClipboardReader = (*Reader)(nil)
