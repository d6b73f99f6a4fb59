package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/doeshing/zai-go/internal/ports"
)

// SelfLauncher starts the completion server by re-executing the current
// binary with the serve subcommand in its own session, so the server
// outlives the shell invocation that spawned it.
type SelfLauncher struct {
	logger ports.Logger
}

// NewSelfLauncher returns a launcher that re-executes the running binary.
func NewSelfLauncher(logger ports.Logger) *SelfLauncher {
	return &SelfLauncher{logger: logger}
}

// Launch spawns the detached server process. The error covers spawn failures
// only; whether the server comes up is the caller's retry to discover.
func (l *SelfLauncher) Launch() error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own binary: %w", err)
	}

	cmd := exec.Command(binary, "serve")
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn server: %w", err)
	}
	l.logger.Info("started detached server", map[string]interface{}{"pid": cmd.Process.Pid})

	// Reap the child when it exits so it never lingers as a zombie.
	go cmd.Wait()
	return nil
}

var _ ports.ServerLauncher = (*SelfLauncher)(nil)
