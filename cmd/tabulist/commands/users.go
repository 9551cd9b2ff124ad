package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
		Long:  `List, register, and remove the users whose todo lists tabulist keeps.`,
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersAddCommand())
	cmd.AddCommand(newUsersRmCommand())

	return cmd
}

func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known users",
		Example: `  # List all users
  tabulist users list

  # Machine-readable output
  tabulist users list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, admin, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := admin.Users(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if jsonOutput {
				return printJSON(users)
			}

			if len(users) == 0 {
				fmt.Println("No users registered")
				return nil
			}
			for _, u := range users {
				fmt.Printf("%s  %s\n", u.ID, u.Name)
			}
			return nil
		},
	}
}

func newUsersAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		Example: `  # Register a user
  tabulist users add alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, admin, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := admin.CreateUser(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			log.Info().Str("user_id", user.ID).Str("name", user.Name).Msg("User registered")

			if jsonOutput {
				return printJSON(user)
			}
			fmt.Println(user.ID)
			return nil
		},
	}
}

func newUsersRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Remove a user and their todos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, admin, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := admin.DeleteUser(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove user: %w", err)
			}

			log.Info().Str("user_id", args[0]).Msg("User removed")
			return nil
		},
	}
}
