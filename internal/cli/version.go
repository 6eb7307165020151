package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fable/pkg/fable"
)

const modulePath = "github.com/mesh-intelligence/fable"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fable version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "fable v%s\nmodule: %s\n", fable.Version, modulePath)
			return nil
		},
	}
}
