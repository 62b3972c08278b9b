package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/statikd/statikd/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and exit",
	Long: `Load the configuration, compile all rewrite rules and resolve the
content root, then exit. A zero exit status means a subsequent serve
with the same configuration would start.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if _, err := buildRouter(cfg); err != nil {
		return err
	}

	slog.Info("configuration ok", "root", cfg.Content.Root, "port", cfg.Server.Port)
	return nil
}
