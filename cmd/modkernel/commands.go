package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/modkernel/internal/app"
	"github.com/dshills/modkernel/internal/autoload"
	"github.com/dshills/modkernel/internal/storage"
)

func newLoadCommand() *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a mod file once and print its information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			application, err := app.New(app.Options{Config: cfg, Out: cmd.OutOrStdout()})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer application.Shutdown()

			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			m, err := application.LoadFile(cmd.Context(), args[0], persist)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Info())
			return nil
		},
	}
	cmd.Flags().BoolVar(&persist, "autoload", false, "load the mod on every start")
	return cmd
}

// withStorage opens the configured storage for commands that only touch
// persisted state.
func withStorage(cmd *cobra.Command, fn func(kv storage.KV) error) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	kv, err := app.OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(kv)
}

func newAutoloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoload",
		Short: "Inspect and edit the autoload set",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List autoloaded mods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(kv storage.KV) error {
				entries, err := autoload.NewStore(kv, log.New(os.Stderr)).All(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no autoloaded mods")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", e.ID, len(e.Source))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Stop autoloading a mod",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(kv storage.KV) error {
				return autoload.NewStore(kv, log.New(os.Stderr)).Remove(cmd.Context(), args[0])
			})
		},
	})
	return cmd
}

func newSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change kernel settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(kv storage.KV) error {
				s, err := autoload.LoadSettings(cmd.Context(), kv, log.New(os.Stderr))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "autoload-on-startup: %t\n", s.AutoloadOnStartup)
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "autoload-on-startup <true|false>",
		Short: "Enable or disable loading autoloaded mods at startup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}
			return withStorage(cmd, func(kv storage.KV) error {
				s, err := autoload.LoadSettings(cmd.Context(), kv, log.New(os.Stderr))
				if err != nil {
					return err
				}
				s.AutoloadOnStartup = on
				return autoload.SaveSettings(cmd.Context(), kv, s)
			})
		},
	})
	return cmd
}
