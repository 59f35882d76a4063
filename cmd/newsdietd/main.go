// Command newsdietd runs the newsdiet daemon in the foreground. It is the
// container entrypoint; interactive use goes through `newsdiet run`.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsdiet/internal/config"
	"newsdiet/internal/daemonrun"
)

func main() {
	_ = godotenv.Load()

	if err := newDaemonCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newDaemonCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "newsdietd",
		Short:         "Fetch, score, and serve news feeds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("NEWSDIET_CONFIG"), "Configuration file path")
	return cmd
}
