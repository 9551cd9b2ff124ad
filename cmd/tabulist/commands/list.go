package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tabulist/tabulist/pkg/todo"
)

func newListCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Long: `List todos across all users, or one user's list with --user.

The aggregate view is recomputed from the store on every call.`,
		Example: `  # Everything, across all users
  tabulist list

  # One user's list
  tabulist list --user 4f6b...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, _, store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var todos map[string]todo.ToDo
			if userID != "" {
				todos, err = store.ForUser(ctx, userID)
			} else {
				todos, err = store.All(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list todos: %w", err)
			}

			if jsonOutput {
				return printJSON(todos)
			}

			if len(todos) == 0 {
				fmt.Println("No todos")
				return nil
			}

			ids := make([]string, 0, len(todos))
			for id := range todos {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			for _, id := range ids {
				td := todos[id]
				fmt.Printf("%s %s  %s  (user %s)\n", checkbox(td.Done), td.ID, td.Label, td.UserID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "limit to one user's todos")

	return cmd
}
