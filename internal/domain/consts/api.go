package consts

// Platform endpoints.
const (
	SiteBaseURL = "https://www.bitchute.com"
	APIBaseURL  = "https://api.bitchute.com/api"

	APIVideosEndpoint = "/beta/videos"
	APISearchEndpoint = "/beta/search/videos"

	TokenHeader = "x-service-info"

	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Media subdirectories under the download base directory.
const (
	DirThumbnails = "thumbnails"
	DirVideos     = "videos"
)

// Listing selections accepted by the videos endpoint.
const (
	SelectionTrendingDay   = "trending-day"
	SelectionTrendingWeek  = "trending-week"
	SelectionTrendingMonth = "trending-month"
	SelectionPopular       = "popular"
)
