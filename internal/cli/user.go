// User management commands.
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage players",
	}
	user.AddCommand(newUserAddCmd())
	user.AddCommand(newUserListCmd())
	user.AddCommand(newUserRenameCmd())
	user.AddCommand(newUserDeleteCmd())
	return user
}

func newUserAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Register a new player",
		Long: "Add registers a player and places them at the story entry point.\n\n" +
			"Usernames are 3-30 characters of letters, digits, and underscores.\n\n" +
			"Example:\n" +
			"  fable user add alice\n" +
			"  fable user add dungeon_master_9 --json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.AddUser(args[0])
			if err != nil {
				return fmt.Errorf("add user: %w", err)
			}

			if flags.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "{\"id\": %d, \"username\": %q}\n", id, args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Added user %s (id %d)\n", args[0], id)
			}
			return nil
		},
	}
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers()
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			if flags.jsonMode {
				out, err := json.MarshalIndent(users, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal users: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users yet")
				return nil
			}
			for _, u := range users {
				dialogID, err := store.UserDialogID(u.ID)
				if err != nil {
					return fmt.Errorf("progress for user %d: %w", u.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t(at dialog %d)\n", u.ID, u.Username, dialogID)
			}
			return nil
		},
	}
}

func newUserRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-username>",
		Short: "Rename a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RenameUser(id, args[1]); err != nil {
				return fmt.Errorf("rename user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed user %d to %s\n", id, args[1])
			return nil
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a player and their progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteUser(id); err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}
}
