// Package cli implements the sparkify command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/justestif/go-sparkify/internal/config"
	"github.com/justestif/go-sparkify/internal/db"
	"github.com/justestif/go-sparkify/internal/logging"
)

type ExitCode int

const (
	exitCodeSuccess ExitCode = 0
	exitCodeError   ExitCode = 1
)

// app carries the state shared by every subcommand once the root command
// has loaded the configuration.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	logOutput  io.Writer
}

// Run executes the command line and returns the process exit code.
func Run() ExitCode {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("sparkify failed")
		return exitCodeError
	}
	return exitCodeSuccess
}

// NewRootCmd builds the sparkify command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logOutput: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "sparkify",
		Short:         "Load Sparkify song and listening logs into a star schema.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file (default $SPARKIFY_CONFIG or ./sparkify.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "set debug logging level")

	rootCmd.AddCommand(
		NewCreateTablesCmd(a).Command(),
		NewETLCmd(a).Command(),
		NewDashboardCmd(a).Command(),
		NewReportCmd(a).Command(),
	)

	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.Output = a.logOutput
	logging.Init(cfg.Logging)
	a.cfg = cfg
	return nil
}

// openDB connects to the sparkify database.
func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	url, err := a.cfg.Database.URL()
	if err != nil {
		return nil, err
	}
	database, err := db.New(ctx, url, db.WithMaxConns(a.cfg.Database.MaxConns))
	if err != nil {
		return nil, err
	}
	logging.Debug().
		Str("host", a.cfg.Database.Host).
		Str("database", a.cfg.Database.Name).
		Msg("connected to database")
	return database, nil
}

// boolFlag returns the flag value when it was set on the command line and
// fallback, usually the configured value, otherwise.
func boolFlag(flags *pflag.FlagSet, name string, fallback bool) (bool, error) {
	if !flags.Changed(name) {
		return fallback, nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, nil
}

// stringFlag is boolFlag for string flags.
func stringFlag(flags *pflag.FlagSet, name, fallback string) (string, error) {
	if !flags.Changed(name) {
		return fallback, nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, nil
}
