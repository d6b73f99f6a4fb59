// Package cli wires the cobra command surface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/zai-go/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. Invoking the binary with a bare
// command prefix is the hot path for shell widgets, so the root command
// forwards positional arguments straight to suggest.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	suggestCmd := newSuggestCommand(container)

	root := &cobra.Command{
		Use:   "zai [prefix] [clipboard]",
		Short: "zai - local shell completion assistant",
		Long:  "zai suggests full shell commands for a typed prefix, using a local model,\nthe system clipboard, and recent shell history.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			suggestCmd.SetArgs(args)
			return suggestCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(suggestCmd)
	root.AddCommand(newServeCommand(container))
	root.AddCommand(newStatusCommand(container))
	root.AddCommand(newStopCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newConfigCommand(container))
	return root, nil
}
