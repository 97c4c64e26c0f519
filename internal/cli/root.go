package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"skillmatch/internal/analyzer"
	"skillmatch/internal/config"
	"skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/roles"
	"skillmatch/internal/storage"
)

// App holds what commands need once configuration is loaded
type App struct {
	Config *config.Config
	Logger *errors.Logger
	Roles  *roles.Table
	Source *storage.Source
}

type appKeyType struct{}

var appKey = appKeyType{}

// configKeyAnnotation marks a flag as overriding a configuration key
const configKeyAnnotation = "skillmatch_config_key"

var rootFlags struct {
	configFile string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "skillmatch",
	Short: "Score resumes against role keyword profiles",
	Long: `Skillmatch extracts text from a resume (PDF, DOCX or plain text), finds the
technical keywords it mentions and scores them against the target keywords of
a job role, with recommendations for the skills that are missing.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: bootstrap,
}

// Execute runs the command line with ctx, which is cancelled on shutdown signals
func Execute(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// bootstrap loads configuration, secrets, the role table and the document
// source, and attaches them to the command context
func bootstrap(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.configFile, func(v *viper.Viper) error {
		return bindCommandFlags(v, cmd.Flags())
	})
	if err != nil {
		return err
	}
	if rootFlags.logLevel != "" {
		cfg.App.LogLevel = rootFlags.logLevel
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid log level", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	table, err := roles.Load(cfg.App.RolesFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	source, err := storage.NewSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Debug("Starting skillmatch",
		"command", cmd.Name(),
		"version", Version,
		"log_level", cfg.App.LogLevel,
		"roles", table.Len(),
		"s3_enabled", source.Enabled())

	cmd.SetContext(context.WithValue(ctx, appKey, &App{
		Config: cfg,
		Logger: logger,
		Roles:  table,
		Source: source,
	}))
	return nil
}

// bindCommandFlags binds every annotated flag to its configuration key
func bindCommandFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		keys := flag.Annotations[configKeyAnnotation]
		if bindErr != nil || len(keys) == 0 {
			return
		}
		bindErr = v.BindPFlag(keys[0], flag)
	})
	return bindErr
}

// configFlag marks flag name on cmd as overriding key
func configFlag(cmd *cobra.Command, name, key string) {
	if err := cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

// getAppFromContext returns the App attached by bootstrap
func getAppFromContext(ctx context.Context) *App {
	if app, ok := ctx.Value(appKey).(*App); ok {
		return app
	}
	panic("app not found in context") // bootstrap runs before every command that needs it
}

// newAnalyzer builds the analysis service for a command run
func (a *App) newAnalyzer() *analyzer.Service {
	opts := []analyzer.Option{analyzer.WithUploadDir(a.Config.App.UploadDir)}
	if a.Source != nil {
		opts = append(opts, analyzer.WithSource(a.Source))
	}
	return analyzer.NewService(extract.New(a.Logger), a.Roles, a.Logger, opts...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configFile, "config", "", "Config file (default: search /etc/skillmatch, $HOME/.skillmatch and .)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
