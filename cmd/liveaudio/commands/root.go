// Package commands holds the liveaudio cobra commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-liveaudio/internal/config"
	"github.com/teslashibe/go-liveaudio/internal/log"
)

var (
	cfg     = config.Default()
	envFile string
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "liveaudio",
		Short:         "Talk to a live audio model from your microphone",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := config.LoadDotEnv(envFile); err != nil {
					return err
				}
			} else if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg.LoadEnv()
			log.Init(cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default ./.env)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	root.AddCommand(runCmd(), voicesCmd())
	return root
}
