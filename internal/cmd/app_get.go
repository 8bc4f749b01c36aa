package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var appGetCmd = &cobra.Command{
	Use:   "get <app-id>",
	Short: "Show a single app",
	Long: `Show a single app by id.

A trashed app prints as null: the row still exists but is hidden until it is
restored or permanently deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAppGet,
}

func init() {
	appCmd.AddCommand(appGetCmd)
}

func runAppGet(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	app, err := c.GetApp(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get app: %w", err)
	}

	data, err := json.MarshalIndent(app, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
