package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"skillmatch/internal/analyzer"
	"skillmatch/internal/common"
	"skillmatch/internal/errors"
	"skillmatch/internal/types"
)

const missingArgumentsMessage = "Missing arguments"

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-path|s3://bucket/key> <role>",
	Short: "Score a resume against a target role",
	Long: `Analyze a resume against the target keywords of a role and print the
score, the matching and missing keywords and recommendations.

The resume can be a local PDF, DOCX or plain text file, or an object in
S3-compatible storage (s3://bucket/key) when storage is enabled.

A resume that cannot be analysed still prints a result document, of the form
{"error": "..."}, and exits successfully.`,
	Args: analyzeArgs,
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// analyzeArgs runs before bootstrap and prints the missing-arguments result line
func analyzeArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return missingArguments(cmd.OutOrStdout())
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return analyzeResume(cmd.Context(), cmd.OutOrStdout(), analyzeConfig, args)
}

// analyzeResume prints the analysis of args[0] against role args[1]
func analyzeResume(ctx context.Context, out io.Writer, cmdConfig common.CommandConfig, args []string) error {
	if len(args) < 2 {
		return missingArguments(out)
	}

	app := getAppFromContext(ctx)
	cmdConfig, err := resolveCommandConfig(app, cmdConfig)
	if err != nil {
		return err
	}

	location, role := args[0], args[1]
	if len(args) > 2 {
		app.Logger.Debug("Ignoring extra arguments", "extra", args[2:])
	}
	service := app.newAnalyzer()
	if !service.HasRole(role) {
		app.Logger.Warn("Unknown target role, resume will score zero", "target_role", role)
	}

	app.Logger.Info("Starting resume analysis",
		"location", location,
		"target_role", role,
		"output_format", cmdConfig.OutputFormat)

	return common.RunCommand(ctx, app.Logger, out, cmdConfig, "analyze",
		func(ctx context.Context) (types.AnalysisResponse, error) {
			report, err := service.AnalyzeSource(ctx, location, role)
			if err != nil {
				app.Logger.LogError(err, "Resume analysis failed", "location", location, "target_role", role)
			} else {
				app.Logger.Info("Resume analysis completed",
					"score", report.Result.Score,
					"match_count", report.Result.MatchCount)
			}
			return analyzer.Respond(report, err), nil
		})
}

// missingArguments prints the result line and returns the usage error
func missingArguments(out io.Writer) error {
	if err := writeMissingArguments(out); err != nil {
		return err
	}
	return errors.NewValidationError(errors.ErrCodeMissingArguments, missingArgumentsMessage, nil).
		WithContext("usage", "skillmatch analyze <resume-path|s3://bucket/key> <role>")
}

// writeMissingArguments prints the usage failure as a result document
func writeMissingArguments(out io.Writer) error {
	data, err := json.Marshal(types.AnalysisResponse{Error: missingArgumentsMessage})
	if err != nil {
		return err
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return errors.NewIOError("OUTPUT_WRITE_FAILED", "Failed to write output", err)
	}
	return nil
}

// resolveCommandConfig applies the default format and validates it
func resolveCommandConfig(app *App, cmdConfig common.CommandConfig) (common.CommandConfig, error) {
	cmdConfig.OutputFormat = common.ResolveFormat(cmdConfig.OutputFormat, app.Config.App.DefaultFormat)
	if err := common.ValidateOutputFormat(cmdConfig.OutputFormat, app.Config.App.SupportedFormats); err != nil {
		return cmdConfig, errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil)
	}
	return cmdConfig, nil
}

// completeFormats offers the configured output formats for --format
func completeFormats(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	if ctx := cmd.Context(); ctx != nil {
		if app, ok := ctx.Value(appKey).(*App); ok {
			return app.Config.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
		}
	}
	return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
}
