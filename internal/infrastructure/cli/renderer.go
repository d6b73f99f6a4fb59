package cli

import (
	"os"

	"github.com/mattn/go-isatty"
)

// Interactive reports whether stdout is a terminal. Non-interactive output
// stays single-line and parse-friendly for shell widgets.
func Interactive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
