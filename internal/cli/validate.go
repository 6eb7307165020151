// Graph validation and storage self-check commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the story graph",
		Long: "Validate checks the story graph for authoring defects: unintended\n" +
			"dead ends, probable infinite loops, and choices pointing at missing\n" +
			"dialogs. Exits non-zero when a defect is found.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dangling, err := store.DanglingNextDialogIDs()
			if err != nil {
				return fmt.Errorf("scan dangling targets: %w", err)
			}
			for _, id := range dangling {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: choices point at missing dialog %d\n", id)
			}

			if !store.ValidateStoryConsistency() {
				return fmt.Errorf("story graph has defects")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Story graph is consistent")
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the storage engine's structural self-check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if !store.CheckIntegrity() {
				return fmt.Errorf("storage integrity check failed; the database needs operator attention")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Storage integrity ok")
			return nil
		},
	}
}
