package cfg

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// initTokenCmds builds the token command group: diagnostics and recovery for
// the authentication token lifecycle.
func initTokenCmds() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and repair the authentication token",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "debug",
		Short: "Exercise every token acquisition path and report findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.TokenDebug(cmd.Context())

			fmt.Printf("Token diagnostics (%s)\n\n", report.Timestamp.Format(time.RFC1123))
			if report.HasStoredToken {
				fmt.Printf("  Stored token:    %s, age %v\n", report.StoredState, report.StoredAge.Round(time.Second))
				if !report.LastValidatedAt.IsZero() {
					fmt.Printf("  Last validated:  %s\n", report.LastValidatedAt.Format(time.RFC1123))
				}
			} else {
				fmt.Println("  Stored token:    none")
			}

			fmt.Printf("  Probe:           %s\n", passFail(report.ProbeOK, report.ProbeErr))
			fmt.Printf("  Page extraction: %s\n", passFail(report.ExtractionOK, report.ExtractionErr))

			if len(report.Recommendations) > 0 {
				fmt.Println("\nRecommendations:")
				for _, rec := range report.Recommendations {
					fmt.Printf("  - %s\n", rec)
				}
			}
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "fix",
		Short: "Clear cached token state and re-acquire from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.TokenFix(cmd.Context())
			if err != nil {
				return fmt.Errorf("token recovery failed: %w", err)
			}

			fmt.Printf("Token recovered (state %s, extracted %s)\n",
				rec.State, rec.ExtractedAt.Format(time.RFC1123))
			return nil
		},
	})

	return tokenCmd
}

func passFail(ok bool, errMsg string) string {
	if ok {
		return "OK"
	}
	return "FAILED: " + errMsg
}
