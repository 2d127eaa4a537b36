// Package main is the entry point for the modkernel host.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/modkernel/internal/app"
	"github.com/dshills/modkernel/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "modkernel",
		Short: "A host for scriptable mods",
		Long: `modkernel loads Lua mods from a directory, lets them observe and veto
host events, wrap host functions and extend host menus, and remembers
which mods should be loaded again on the next start.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to configuration file")

	root.AddCommand(
		newRunCommand(),
		newLoadCommand(),
		newAutoloadCommand(),
		newSettingsCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads the configuration selected by --config.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, _, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCommand() *cobra.Command {
	var noConsole bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the host, load mods and read console commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			opts := app.Options{Config: cfg, Out: cmd.OutOrStdout()}
			if !noConsole {
				opts.In = os.Stdin
			}
			application, err := app.New(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			if err := application.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read commands from stdin")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "modkernel %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
