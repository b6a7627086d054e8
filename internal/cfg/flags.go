package cfg

import (
	"path/filepath"

	"vidarr/internal/domain/consts"
	"vidarr/internal/domain/keys"
	"vidarr/internal/domain/setup"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initProgramFlags sets up root-level persistent flags and binds them to
// Viper keys.
func initProgramFlags(rootCmd *cobra.Command) error {

	rootCmd.PersistentFlags().Int(keys.DebugLevel, 0, "Debug level (0-3)")
	if err := viper.BindPFlag(keys.DebugLevel, rootCmd.PersistentFlags().Lookup(keys.DebugLevel)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().StringP(keys.DownloadDir, "o", filepath.Join(setup.CfgDir, "downloads"), "Base directory for downloaded media")
	if err := viper.BindPFlag(keys.DownloadDir, rootCmd.PersistentFlags().Lookup(keys.DownloadDir)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().IntP(keys.Concurrency, "c", consts.DefaultConcurrency, "Maximum simultaneous downloads")
	if err := viper.BindPFlag(keys.Concurrency, rootCmd.PersistentFlags().Lookup(keys.Concurrency)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Duration(keys.RateInterval, consts.DefaultRateInterval, "Minimum spacing between request starts")
	if err := viper.BindPFlag(keys.RateInterval, rootCmd.PersistentFlags().Lookup(keys.RateInterval)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Duration(keys.RequestTimeout, consts.DefaultRequestTimeout, "Per-request timeout")
	if err := viper.BindPFlag(keys.RequestTimeout, rootCmd.PersistentFlags().Lookup(keys.RequestTimeout)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Int(keys.DLRetries, consts.DefaultMaxAttempts, "Maximum fetch attempts per item")
	if err := viper.BindPFlag(keys.DLRetries, rootCmd.PersistentFlags().Lookup(keys.DLRetries)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Bool(keys.ForceRedownload, false, "Re-fetch content even when the ledger already holds it")
	if err := viper.BindPFlag(keys.ForceRedownload, rootCmd.PersistentFlags().Lookup(keys.ForceRedownload)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Bool(keys.SkipVerify, false, "Trust existing files at target paths without re-hashing")
	if err := viper.BindPFlag(keys.SkipVerify, rootCmd.PersistentFlags().Lookup(keys.SkipVerify)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().BoolP(keys.SkipWait, "s", false, "Skip the random pre-batch wait")
	if err := viper.BindPFlag(keys.SkipWait, rootCmd.PersistentFlags().Lookup(keys.SkipWait)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().Duration(keys.TokenFreshness, consts.DefaultTokenFreshness, "How long a validated token is reused without re-probing")
	if err := viper.BindPFlag(keys.TokenFreshness, rootCmd.PersistentFlags().Lookup(keys.TokenFreshness)); err != nil {
		return err
	}

	rootCmd.PersistentFlags().String(keys.TokenPageURL, consts.SiteBaseURL, "Page URL rendered during token extraction")
	if err := viper.BindPFlag(keys.TokenPageURL, rootCmd.PersistentFlags().Lookup(keys.TokenPageURL)); err != nil {
		return err
	}

	return nil
}
