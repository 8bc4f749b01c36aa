package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/footprintai/folderium/internal/model"
)

var (
	appUpdateName  string
	appUpdateDesc  string
	appUpdateColor string
)

var appUpdateCmd = &cobra.Command{
	Use:   "update <app-id>",
	Short: "Update an app's name, description, or color",
	Long: `Update an app. Only the fields given as flags are changed.

Examples:
  folderium app update <app-id> --name "Watch list"
  folderium app update <app-id> --desc "Things to watch" --color "#d94a4a"`,
	Args: cobra.ExactArgs(1),
	RunE: runAppUpdate,
}

func init() {
	appCmd.AddCommand(appUpdateCmd)

	appUpdateCmd.Flags().StringVar(&appUpdateName, "name", "", "New app name")
	appUpdateCmd.Flags().StringVar(&appUpdateDesc, "desc", "", "New app description")
	appUpdateCmd.Flags().StringVar(&appUpdateColor, "color", "", "New app color style")
}

func runAppUpdate(cmd *cobra.Command, args []string) error {
	params := model.UpdateAppParams{AppID: args[0]}
	if cmd.Flags().Changed("name") {
		params.Name = &appUpdateName
	}
	if cmd.Flags().Changed("desc") {
		params.Desc = &appUpdateDesc
	}
	if cmd.Flags().Changed("color") {
		params.ColorStyle = &appUpdateColor
	}
	if params.Name == nil && params.Desc == nil && params.ColorStyle == nil {
		return fmt.Errorf("nothing to update: pass --name, --desc, or --color")
	}

	c, err := apiClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.UpdateApp(cmd.Context(), params); err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}

	fmt.Printf("Updated app %s\n", args[0])
	return nil
}
