package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/zai-go/internal/app"
	"github.com/doeshing/zai-go/internal/domain"
)

func newStatusCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the completion service is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := container.Manager.Check()
			out := cmd.OutOrStdout()

			if status.State != domain.ServerRunning {
				fmt.Fprintln(out, string(domain.ServerStopped))
				return &ExitError{Code: 1}
			}

			if !Interactive() {
				fmt.Fprintf(out, "%s %s %s\n", status.State, joinPids(status.PIDs), status.Addr)
				return nil
			}

			fmt.Fprintf(out, "%s on %s (pid %s)\n", status.State, status.Addr, joinPids(status.PIDs))
			if meta, ok := container.Records.ReadMeta(); ok && !meta.StartedAt.IsZero() {
				fmt.Fprintf(out, "started %s\n", humanize.Time(meta.StartedAt))
			}
			return nil
		},
	}
}

func joinPids(pids []int) string {
	if len(pids) == 0 {
		return "?"
	}
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, ",")
}

func newStopCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the completion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome := container.Manager.Stop()
			fmt.Fprintln(cmd.OutOrStdout(), string(outcome))
			if outcome != domain.StopClean {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
