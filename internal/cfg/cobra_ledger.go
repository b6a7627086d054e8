package cfg

import (
	"fmt"

	"github.com/spf13/cobra"
)

// initStatsCmd builds the stats command: summarize ledger contents.
func initStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show download ledger statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.LedgerStats()
			if err != nil {
				return err
			}

			fmt.Printf("Ledger entries: %d (%s)\n", stats.TotalEntries, humanBytes(stats.TotalBytes))
			for kind, count := range stats.ByMediaKind {
				fmt.Printf("  %-10s %d\n", kind, count)
			}
			return nil
		},
	}
}

// initCleanupCmd builds the cleanup command: prune ledger entries whose
// files are gone, optionally re-verifying survivors.
func initCleanupCmd() *cobra.Command {
	var verify bool

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove ledger entries for missing files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.CleanupLedger(verify)
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d entries: %d removed, %d verified, %d failed verification\n",
				report.Scanned, report.Removed, report.Verified, report.Failed)
			return nil
		},
	}

	cleanupCmd.Flags().BoolVar(&verify, "verify", false, "Re-hash surviving files against their fingerprints")

	return cleanupCmd
}
