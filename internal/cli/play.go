// Story navigation commands: show the current dialog, follow a choice.
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// dialogView is the JSON shape printed by the show command.
type dialogView struct {
	Dialog  *types.DialogNode `json:"dialog"`
	Choices []types.Choice    `json:"choices"`
	Ended   bool              `json:"ended"`
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a player's current dialog and choices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dialogID, err := store.UserDialogID(userID)
			if err != nil {
				return fmt.Errorf("resolve progress: %w", err)
			}

			dialog, err := store.DialogByID(dialogID)
			if err != nil {
				return fmt.Errorf("load dialog: %w", err)
			}

			view := dialogView{Dialog: dialog, Ended: dialog == nil}
			if dialog != nil {
				view.Choices, err = store.ChoicesForDialog(dialogID)
				if err != nil {
					return fmt.Errorf("load choices: %w", err)
				}
			}

			if flags.jsonMode {
				out, err := json.MarshalIndent(view, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal dialog: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			if view.Ended {
				fmt.Fprintln(cmd.OutOrStdout(), "The story has ended.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", dialog.Text)
			if len(view.Choices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no choices; this is the end)")
				return nil
			}
			for _, c := range view.Choices {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s\n", c.ID, c.Text)
			}
			return nil
		},
	}
}

func newChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "choose <user-id> <choice-id>",
		Short: "Advance a player along one of the current dialog's choices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			choiceID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid choice id %q", args[1])
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dialogID, err := store.UserDialogID(userID)
			if err != nil {
				return fmt.Errorf("resolve progress: %w", err)
			}
			choices, err := store.ChoicesForDialog(dialogID)
			if err != nil {
				return fmt.Errorf("load choices: %w", err)
			}

			for _, c := range choices {
				if c.ID != choiceID {
					continue
				}
				if err := store.UpdateUserProgress(userID, c.NextDialogID); err != nil {
					return fmt.Errorf("advance progress: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved to dialog %d\n", c.NextDialogID)
				return nil
			}
			return fmt.Errorf("choice %d is not available from dialog %d", choiceID, dialogID)
		},
	}
}
