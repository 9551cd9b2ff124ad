package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabulist/tabulist/pkg/todo"
)

func newAddCommand() *cobra.Command {
	var (
		userID string
		done   bool
	)

	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Add a todo for a user",
		Args:  cobra.ExactArgs(1),
		Example: `  # Add a todo
  tabulist add --user 4f6b... "buy milk"

  # Add an already completed todo
  tabulist add --user 4f6b... --done "water plants"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, _, store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := store.Create(ctx, userID, todo.Draft{Label: args[0], Done: done})
			if err != nil {
				return fmt.Errorf("failed to add todo: %w", err)
			}

			if jsonOutput {
				return printJSON(created)
			}
			fmt.Println(created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "owning user ID")
	cmd.Flags().BoolVar(&done, "done", false, "mark the todo completed on creation")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
