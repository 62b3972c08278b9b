package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/statikd/statikd/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "statikd",
	Short:   "Static content server with rewrites and compression",
	Long: `Statikd serves files from a content root over HTTP, with URI
rewriting, precompressed and dynamic content encoding, byte ranges
and conditional requests.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil,
		"config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "content root directory (env: STATIKD_CONTENT_ROOT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
