package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/model"
)

var (
	appListFormat    string
	appListWorkspace string
)

var appListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a workspace's visible apps",
	Long: `List the visible apps of a workspace in display order.

Apps that are in the trash are not listed.

Examples:
  # List apps
  folderium app list --workspace <workspace-id> --server localhost:8080

  # List in JSON format
  folderium app list --workspace <workspace-id> --format json`,
	Aliases: []string{"ls"},
	RunE:    runAppList,
}

func init() {
	appCmd.AddCommand(appListCmd)

	appListCmd.Flags().StringVarP(&appListFormat, "format", "f", "table", "Output format: table, json")
	appListCmd.Flags().StringVarP(&appListWorkspace, "workspace", "w", "", "Workspace id (required)")
	appListCmd.MarkFlagRequired("workspace")
}

func runAppList(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	apps, err := c.ListWorkspaceApps(cmd.Context(), appListWorkspace)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	switch appListFormat {
	case "table":
		printAppTable(apps)
	case "json":
		return printAppJSON(apps)
	default:
		return fmt.Errorf("unknown format: %s (use: table, json)", appListFormat)
	}

	return nil
}

func printAppTable(apps []model.App) {
	fmt.Printf("%-4s %-38s %-25s %-8s\n", "POS", "ID", "NAME", "VERSION")
	fmt.Printf("%-4s %-38s %-25s %-8s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 38),
		strings.Repeat("-", 25),
		strings.Repeat("-", 8))

	if len(apps) == 0 {
		fmt.Println("No apps found.")
		return
	}

	for _, app := range apps {
		fmt.Printf("%-4d %-38s %-25s %-8d\n",
			app.Position,
			app.ID,
			truncate(app.Name, 25),
			app.Version)
	}

	fmt.Println()
	fmt.Printf("Total: %d apps\n", len(apps))
}

func printAppJSON(apps []model.App) error {
	data, err := json.MarshalIndent(map[string]interface{}{
		"items": apps,
		"count": len(apps),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
