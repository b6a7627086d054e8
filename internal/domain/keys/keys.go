package keys

// Download operation keys
const (
	Concurrency     string = "concurrency"
	RateInterval    string = "rate-interval"
	RequestTimeout  string = "request-timeout"
	DLRetries       string = "dl-retries"
	ForceRedownload string = "force-redownload"
	DownloadDir     string = "download-dir"
	Thumbnails      string = "thumbnails"
	Videos          string = "videos"
	SkipVerify      string = "skip-verify"
	SkipWait        string = "skip-wait"
)

// Token keys
const (
	TokenFreshness string = "token-freshness"
	TokenPageURL   string = "token-page-url"
)

// Listing keys
const (
	Selection string = "selection"
	Query     string = "query"
	Limit     string = "limit"
)

// Logging
const (
	DebugLevel string = "debug-level"
)
