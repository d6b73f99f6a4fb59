package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/zai-go/internal/app"
	"github.com/doeshing/zai-go/internal/domain"
)

func newConfigCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", container.ConfigLoader.Path())
			raw, err := yaml.Marshal(container.Config)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(raw))
			fmt.Fprintf(out, "# supported prefixes: %s\n", strings.Join(domain.SupportedPrefixes(), ", "))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Overwrite the configuration file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := container.ConfigLoader.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s to defaults\n", container.ConfigLoader.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
		},
	})

	return cmd
}
