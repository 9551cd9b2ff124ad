package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <todo-id> <label>",
		Short: "Change a todo's label",
		Args:  cobra.ExactArgs(2),
		Example: `  # Reword a todo
  tabulist edit a1b2c3d4e5f6g7h8 "buy oat milk"`,
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

			record.Label = args[1]
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

	return cmd
}
