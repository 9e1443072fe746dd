package cli

import (
	"fmt"
	"os"

	"github.com/envmatrix/envmatrix/internal/scaffold"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command, which writes a starter config,
// an example Dockerfile and the canonical entrypoint script.
func NewInitCmd(_ *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a starter test project",
		Long: `Init writes an example envmatrix.yml, an example Dockerfile and the
canonical entrypoint script into the given directory (default: the
working directory). Existing files are never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			written, err := scaffold.Write(dir)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}

	return cmd
}
