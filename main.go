package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sciencefair-registration/config"
	"sciencefair-registration/db"
	"sciencefair-registration/logging"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sciencefair",
	Short: "Science fair project registration API",
	Long: `sciencefair serves the registration API for the science fair form.

Registrations are validated and appended to a spreadsheet: Google Sheets,
a local .xlsx workbook, or an in-memory mock (USE_MOCK_SHEETS=true).

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Environment, cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cfg, logger)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cfg, logger)
	},
}

var teachersCmd = &cobra.Command{
	Use:   "teachers",
	Short: "Print the teacher list the form will offer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) (interface{}, error) {
			return a.store.GetTeachers(cmd.Context())
		}, cmd)
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Print the fair metadata from the Info sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) (interface{}, error) {
			return a.store.GetFairMetadata(cmd.Context())
		}, cmd)
	},
}

var nextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Print the project id the next registration would get",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) (interface{}, error) {
			id, err := a.store.NextProjectID(cmd.Context())
			return map[string]int{"projectId": id}, err
		}, cmd)
	},
}

// withApp builds the backends, runs one lookup and prints its result as JSON.
func withApp(ctx context.Context, lookup func(a *app) (interface{}, error), cmd *cobra.Command) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := lookup(a)
	if errors.Is(err, db.ErrUsingDefaults) {
		logger.Warn("sheet could not be read, printing defaults")
	} else if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file (env vars take precedence)")
	rootCmd.AddCommand(serveCmd, teachersCmd, metadataCmd, nextIDCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
