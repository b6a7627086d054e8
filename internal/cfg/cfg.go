// Package cfg provides configuration and command-line interface setup for Vidarr.
package cfg

import (
	"context"
	"strings"

	"vidarr/internal/domain/keys"
	"vidarr/internal/utils/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "vidarr",
	Short: "Vidarr collects media from a video platform with dedup-aware downloads.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Level = viper.GetInt(keys.DebugLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("help").Changed {
			return nil
		}
		return cmd.Help()
	},
}

// InitCommands initializes all commands and their flags.
func InitCommands() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("vidarr")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := initProgramFlags(rootCmd); err != nil {
		return err
	}

	rootCmd.AddCommand(initDownloadCmd())
	rootCmd.AddCommand(initStatsCmd())
	rootCmd.AddCommand(initCleanupCmd())
	rootCmd.AddCommand(initTokenCmds())

	return nil
}

// ExecuteContext runs the root command tree under a cancellable context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
