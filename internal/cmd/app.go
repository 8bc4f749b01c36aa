package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/client"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage workspace apps",
	Long: `Manage the apps of a workspace through the folderium daemon.

Examples:
  # List a workspace's visible apps
  folderium app list --workspace <workspace-id>

  # Create an app
  folderium app create "Reading list" --workspace <workspace-id>

  # Rename an app
  folderium app update <app-id> --name "Watch list"

  # Reorder apps
  folderium app move <app-id> --from 2 --to 0`,
}

func init() {
	rootCmd.AddCommand(appCmd)
}

// apiClient builds the HTTP client from the global --server/--token flags
func apiClient() (*client.HTTPClient, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("--server is required")
	}
	return client.NewHTTPClient(serverAddr, apiToken)
}
