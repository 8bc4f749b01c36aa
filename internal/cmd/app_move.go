package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appMoveFrom int
	appMoveTo   int
)

var appMoveCmd = &cobra.Command{
	Use:   "move <app-id>",
	Short: "Move an app within its workspace ordering",
	Long: `Move an app from one position to another within its workspace.

Positions count from 0 and include trashed apps, since the ordering is kept
over all of the workspace's rows.

Examples:
  folderium app move <app-id> --from 2 --to 0`,
	Args: cobra.ExactArgs(1),
	RunE: runAppMove,
}

func init() {
	appCmd.AddCommand(appMoveCmd)

	appMoveCmd.Flags().IntVar(&appMoveFrom, "from", 0, "Current position (required)")
	appMoveCmd.MarkFlagRequired("from")
	appMoveCmd.Flags().IntVar(&appMoveTo, "to", 0, "Target position (required)")
	appMoveCmd.MarkFlagRequired("to")
}

func runAppMove(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.MoveApp(cmd.Context(), args[0], appMoveFrom, appMoveTo); err != nil {
		return fmt.Errorf("failed to move app: %w", err)
	}

	fmt.Printf("Moved app %s from %d to %d\n", args[0], appMoveFrom, appMoveTo)
	return nil
}
