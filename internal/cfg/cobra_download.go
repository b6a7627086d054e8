package cfg

import (
	"fmt"

	"vidarr/internal/app"
	"vidarr/internal/domain/consts"
	"vidarr/internal/domain/keys"
	"vidarr/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initDownloadCmd builds the download command: list videos from the platform
// and fetch their media.
func initDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "List platform videos and download their media",
		Long:  "Lists videos (trending, popular, or search results) and downloads thumbnails and/or video files, skipping content the ledger already holds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			opts := app.DownloadOptions{
				Selection:  viper.GetString(keys.Selection),
				Query:      viper.GetString(keys.Query),
				Limit:      viper.GetInt(keys.Limit),
				Thumbnails: viper.GetBool(keys.Thumbnails),
				Videos:     viper.GetBool(keys.Videos),
			}

			outcomes, err := a.RunDownload(cmd.Context(), opts)
			if err != nil {
				return err
			}

			printOutcomes(outcomes)
			return nil
		},
	}

	downloadCmd.Flags().String(keys.Selection, consts.SelectionTrendingDay, "Listing selection (trending-day, trending-week, trending-month, popular)")
	viper.BindPFlag(keys.Selection, downloadCmd.Flags().Lookup(keys.Selection))

	downloadCmd.Flags().StringP(keys.Query, "q", "", "Search query (overrides the listing selection)")
	viper.BindPFlag(keys.Query, downloadCmd.Flags().Lookup(keys.Query))

	downloadCmd.Flags().IntP(keys.Limit, "n", 20, "Maximum videos to list")
	viper.BindPFlag(keys.Limit, downloadCmd.Flags().Lookup(keys.Limit))

	downloadCmd.Flags().Bool(keys.Thumbnails, false, "Download thumbnails")
	viper.BindPFlag(keys.Thumbnails, downloadCmd.Flags().Lookup(keys.Thumbnails))

	downloadCmd.Flags().Bool(keys.Videos, false, "Download video files")
	viper.BindPFlag(keys.Videos, downloadCmd.Flags().Lookup(keys.Videos))

	return downloadCmd
}

// printOutcomes prints a per-task result table to stdout.
func printOutcomes(outcomes []models.DownloadOutcome) {
	if len(outcomes) == 0 {
		fmt.Println("Nothing to download.")
		return
	}

	for _, o := range outcomes {
		switch o.Status {
		case models.OutcomeDownloaded:
			fmt.Printf("  [%3d] downloaded   %s (%s)\n", o.Index, o.LocalPath, humanBytes(o.SizeBytes))
		case models.OutcomeSkippedCached:
			fmt.Printf("  [%3d] cached       %s\n", o.Index, o.LocalPath)
		case models.OutcomeSkippedExists:
			fmt.Printf("  [%3d] on disk      %s\n", o.Index, o.LocalPath)
		case models.OutcomeFailed:
			fmt.Printf("  [%3d] FAILED (%s)  %s: %v\n", o.Index, o.ErrorKind, o.Task.URL, o.Err)
		}
	}
}

// humanBytes renders a byte count with a binary-unit suffix.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
