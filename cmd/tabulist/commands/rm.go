package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <todo-id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		Example: `  # Delete a todo by ID
  tabulist rm a1b2c3d4e5f6g7h8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, _, store, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete todo: %w", err)
			}

			log.Info().Str("todo_id", args[0]).Msg("Todo deleted")
			return nil
		},
	}
}
