package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"skillmatch/internal/common"
	"skillmatch/internal/types"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles resumes can be scored against",
	Args:  cobra.NoArgs,
	RunE:  runRoles,
}

var rolesConfig common.CommandConfig

func init() {
	rolesCmd.Flags().StringVarP(&rolesConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	rolesCmd.Flags().StringVar(&rolesConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = rolesCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runRoles(cmd *cobra.Command, _ []string) error {
	return listRoles(cmd.Context(), cmd.OutOrStdout(), rolesConfig)
}

// listRoles prints the role catalog
func listRoles(ctx context.Context, out io.Writer, cmdConfig common.CommandConfig) error {
	app := getAppFromContext(ctx)
	cmdConfig, err := resolveCommandConfig(app, cmdConfig)
	if err != nil {
		return err
	}

	service := app.newAnalyzer()
	return common.RunCommand(ctx, app.Logger, out, cmdConfig, "roles",
		func(context.Context) (types.RolesResponse, error) {
			return service.Roles(), nil
		})
}
