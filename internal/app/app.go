// Package app wires Vidarr's subsystems together and hosts the top-level
// operations the commands invoke.
package app

import (
	"context"
	"fmt"

	"vidarr/internal/api"
	"vidarr/internal/contracts"
	"vidarr/internal/database"
	"vidarr/internal/domain/consts"
	"vidarr/internal/domain/setup"
	"vidarr/internal/downloads"
	"vidarr/internal/models"
	"vidarr/internal/repo"
	"vidarr/internal/scraper"
	"vidarr/internal/times"
	"vidarr/internal/token"
	"vidarr/internal/utils/logging"
	"vidarr/internal/validation"
)

// App holds the wired application graph.
type App struct {
	DB     *database.DBControl
	Ledger contracts.Ledger
	Tokens *token.Manager
	Client *api.Client

	dlSettings models.DownloadSettings
}

// New opens the database and wires stores, token lifecycle, and the API
// client. Settings are validated here, once.
func New(dlSettings models.DownloadSettings, tokSettings models.TokenSettings) (*App, error) {
	if err := validation.ValidateDownloadSettings(&dlSettings); err != nil {
		return nil, err
	}
	if err := validation.ValidateTokenSettings(&tokSettings); err != nil {
		return nil, err
	}

	dbc, err := database.InitDB(setup.DBFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client := api.NewClient("", dlSettings.RequestTimeout)
	extractor := scraper.New(consts.ExtractTimeout)

	tokenStore := repo.GetTokenStore(dbc.DB)
	tokenMgr := token.NewManager(tokenStore, client, extractor, tokSettings)

	return &App{
		DB:         dbc,
		Ledger:     repo.GetLedgerStore(dbc.DB),
		Tokens:     tokenMgr,
		Client:     client,
		dlSettings: dlSettings,
	}, nil
}

// Close releases the database handle.
func (a *App) Close() {
	if a.DB != nil && a.DB.DB != nil {
		if err := a.DB.DB.Close(); err != nil {
			logging.E("Failed to close database: %v", err)
		}
	}
}

// DownloadOptions selects what a download run fetches.
type DownloadOptions struct {
	Selection  string
	Query      string
	Limit      int
	Thumbnails bool
	Videos     bool
}

// RunDownload lists videos per the options and downloads the requested media
// kinds. Individual task failures are reported in outcomes, not as an error.
func (a *App) RunDownload(ctx context.Context, opts DownloadOptions) ([]models.DownloadOutcome, error) {
	if !opts.Thumbnails && !opts.Videos {
		opts.Thumbnails = true
		opts.Videos = true
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	rec, err := a.Tokens.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot start download run: %w", err)
	}

	var items []api.VideoItem
	if opts.Query != "" {
		items, err = a.Client.Search(ctx, rec.Value, opts.Query, opts.Limit)
	} else {
		selection := opts.Selection
		if selection == "" {
			selection = consts.SelectionTrendingDay
		}
		items, err = a.Client.Trending(ctx, rec.Value, selection, opts.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing failed: %w", err)
	}

	if len(items) == 0 {
		logging.I("No videos matched the listing request")
		return nil, nil
	}
	logging.I("Listing returned %d videos", len(items))

	tasks := api.BuildTasks(items, opts.Thumbnails, opts.Videos)
	if len(tasks) == 0 {
		logging.W("Listing items carried no downloadable URLs")
		return nil, nil
	}

	mgr, err := downloads.NewManager(a.Ledger, a.Tokens, a.dlSettings)
	if err != nil {
		return nil, err
	}

	if err := times.StartupWait(ctx, a.dlSettings.SkipWait); err != nil {
		return nil, err
	}

	return mgr.DownloadAll(ctx, tasks)
}

// LedgerStats returns ledger summary statistics.
func (a *App) LedgerStats() (models.LedgerStats, error) {
	return a.Ledger.Stats()
}

// CleanupLedger prunes ledger entries whose files are gone; with verify set
// it also re-hashes surviving files against their fingerprints.
func (a *App) CleanupLedger(verify bool) (models.CleanupReport, error) {
	return a.Ledger.CleanupOrphans(verify)
}

// TokenDebug exercises every token acquisition path and reports findings.
func (a *App) TokenDebug(ctx context.Context) token.DebugReport {
	return a.Tokens.Debug(ctx)
}

// TokenFix clears token state and re-acquires from scratch.
func (a *App) TokenFix(ctx context.Context) (*models.TokenRecord, error) {
	return a.Tokens.Fix(ctx)
}
