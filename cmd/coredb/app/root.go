// Package app implements coredb's operational CLI: maintenance
// subcommands run against a wired-up, in-process instance. This is
// not the SQL shell the teaching project also ships — there is no SQL
// parser behind any of these subcommands.
package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"coredb/config"
	"coredb/engine"
	"coredb/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "coredb",
		Short: "Operational CLI for the coredb storage/execution engine",
	}

	eng *engine.Engine
)

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("coredb: load config: %w", err)
		}

		log, err := logging.New(cfg.Environment)
		if err != nil {
			return fmt.Errorf("coredb: build logger: %w", err)
		}

		e, err := engine.Open(cfg, log)
		if err != nil {
			return fmt.Errorf("coredb: open engine: %w", err)
		}
		eng = e
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if eng == nil {
			return nil
		}
		return eng.Close()
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
