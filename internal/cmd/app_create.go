package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/model"
)

var (
	appCreateWorkspace string
	appCreateDesc      string
	appCreateColor     string
)

var appCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an app in a workspace",
	Long: `Create an app in a workspace.

The app id is minted by the cloud backend; the new app is appended at the end
of the workspace's display order.

Examples:
  folderium app create "Reading list" --workspace <workspace-id>
  folderium app create "Projects" --workspace <workspace-id> --desc "Active work" --color "#4a90d9"`,
	Args: cobra.ExactArgs(1),
	RunE: runAppCreate,
}

func init() {
	appCmd.AddCommand(appCreateCmd)

	appCreateCmd.Flags().StringVarP(&appCreateWorkspace, "workspace", "w", "", "Workspace id (required)")
	appCreateCmd.MarkFlagRequired("workspace")
	appCreateCmd.Flags().StringVar(&appCreateDesc, "desc", "", "App description")
	appCreateCmd.Flags().StringVar(&appCreateColor, "color", "", "App color style")
}

func runAppCreate(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	app, err := c.CreateApp(cmd.Context(), model.CreateAppParams{
		WorkspaceID: appCreateWorkspace,
		Name:        args[0],
		Desc:        appCreateDesc,
		ColorStyle:  appCreateColor,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	fmt.Printf("Created app %s at position %d\n", app.ID, app.Position)
	return nil
}
