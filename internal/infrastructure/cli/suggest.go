package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/zai-go/internal/app"
	"github.com/doeshing/zai-go/internal/domain"
)

func newSuggestCommand(container *app.Container) *cobra.Command {
	var (
		clipboardOverride string
		timeout           time.Duration
	)

	cmd := &cobra.Command{
		Use:   "suggest <prefix> [clipboard]",
		Short: "Suggest a full command for a typed prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := args[0]
			kind, ok := domain.KindForPrefix(prefix)
			if !ok {
				// Shell widgets invoke this on every keystroke; unsupported
				// prefixes must stay silent and succeed.
				return nil
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			raw := clipboardOverride
			if len(args) == 2 {
				raw = args[1]
			}
			if raw == "" && container.Clipboard.Enabled() {
				if text, err := container.Clipboard.Read(); err == nil {
					raw = text
				}
			}
			clip := domain.Classify(raw)

			maxLines := container.Config.History.MaxLines
			if maxLines <= 0 {
				maxLines = domain.MaxHistoryLines
			}
			req := domain.CompletionRequest{
				Prefix:    prefix,
				Clipboard: clip,
				History:   container.History.Recent(maxLines),
			}

			result, err := container.Orchestrator.Suggest(ctx, req)
			if err != nil {
				// Every degradation path is already inside the orchestrator;
				// if it still fails, answer with the deterministic fallback
				// rather than breaking the widget.
				container.Logger.Debug("suggestion pipeline failed", map[string]interface{}{"error": err.Error()})
				fmt.Fprintln(cmd.OutOrStdout(), kind.TemplatedFallback(clip))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Suggestion)
			if Interactive() {
				fmt.Fprintf(cmd.ErrOrStderr(), "(source: %s)\n", result.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&clipboardOverride, "clipboard", "c", "", "Use this text instead of reading the system clipboard")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall deadline for producing a suggestion")

	return cmd
}
