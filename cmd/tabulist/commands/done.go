package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoneCommand() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <todo-id>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		Example: `  # Complete a todo
  tabulist done a1b2c3d4e5f6g7h8

  # Reopen it
  tabulist done --undo a1b2c3d4e5f6g7h8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, _, store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			all, err := store.All(ctx)
			if err != nil {
				return fmt.Errorf("failed to look up todo: %w", err)
			}
			record, ok := all[args[0]]
			if !ok {
				return fmt.Errorf("todo %s not found", args[0])
			}

			record.Done = !undo
			updated, err := store.Update(ctx, args[0], record)
			if err != nil {
				return fmt.Errorf("failed to update todo: %w", err)
			}

			if jsonOutput {
				return printJSON(updated)
			}
			fmt.Printf("%s %s  %s\n", checkbox(updated.Done), updated.ID, updated.Label)
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark the todo as not done instead")

	return cmd
}
