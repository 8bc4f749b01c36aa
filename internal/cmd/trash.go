package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/model"
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Manage the trash",
	Long: `Move apps into the trash, restore them, or delete them permanently.

Trashed apps keep their rows and ordering positions but are hidden from reads
until restored. Permanent deletion destroys the rows.

Examples:
  # Move an app to the trash
  folderium trash add <app-id>

  # Restore it
  folderium trash putback <app-id>

  # Destroy it permanently
  folderium trash delete <app-id>`,
}

var trashAddCmd = &cobra.Command{
	Use:   "add <app-id>...",
	Short: "Move apps into the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrashAdd,
}

var trashPutbackCmd = &cobra.Command{
	Use:   "putback <app-id>...",
	Short: "Restore apps from the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrashPutback,
}

var trashDeleteCmd = &cobra.Command{
	Use:   "delete <app-id>...",
	Short: "Permanently delete trashed apps",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrashDelete,
}

func init() {
	rootCmd.AddCommand(trashCmd)
	trashCmd.AddCommand(trashAddCmd)
	trashCmd.AddCommand(trashPutbackCmd)
	trashCmd.AddCommand(trashDeleteCmd)
}

func runTrashAdd(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	items := make([]model.TrashRevision, 0, len(args))
	for _, id := range args {
		items = append(items, model.TrashRevision{ID: id, Kind: model.TrashKindApp})
	}

	if err := c.AddTrash(cmd.Context(), items); err != nil {
		return fmt.Errorf("failed to add trash: %w", err)
	}

	fmt.Printf("Moved %d app(s) to trash\n", len(args))
	return nil
}

func runTrashPutback(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.PutbackTrash(cmd.Context(), args); err != nil {
		return fmt.Errorf("failed to putback trash: %w", err)
	}

	fmt.Printf("Restored %d app(s) from trash\n", len(args))
	return nil
}

func runTrashDelete(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.DeleteTrash(cmd.Context(), args); err != nil {
		return fmt.Errorf("failed to delete trash: %w", err)
	}

	fmt.Printf("Permanently deleted %d app(s)\n", len(args))
	return nil
}
