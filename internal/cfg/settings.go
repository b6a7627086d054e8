package cfg

import (
	"vidarr/internal/app"
	"vidarr/internal/domain/keys"
	"vidarr/internal/models"

	"github.com/spf13/viper"
)

// settingsFromViper collects the flag/env values into settings structs.
func settingsFromViper() (models.DownloadSettings, models.TokenSettings) {
	dl := models.DownloadSettings{
		BaseDir:         viper.GetString(keys.DownloadDir),
		Concurrency:     viper.GetInt(keys.Concurrency),
		RateInterval:    viper.GetDuration(keys.RateInterval),
		RequestTimeout:  viper.GetDuration(keys.RequestTimeout),
		MaxAttempts:     viper.GetInt(keys.DLRetries),
		ForceRedownload: viper.GetBool(keys.ForceRedownload),
		SkipVerify:      viper.GetBool(keys.SkipVerify),
		SkipWait:        viper.GetBool(keys.SkipWait),
	}

	tok := models.TokenSettings{
		PageURL:   viper.GetString(keys.TokenPageURL),
		Freshness: viper.GetDuration(keys.TokenFreshness),
	}

	return dl, tok
}

// buildApp constructs the wired application from current settings. Callers
// own the returned app and must Close it.
func buildApp() (*app.App, error) {
	dl, tok := settingsFromViper()
	return app.New(dl, tok)
}
