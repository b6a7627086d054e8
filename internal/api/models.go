package api

import (
	"time"

	"vidarr/internal/models"
	"vidarr/internal/utils/logging"

	"github.com/araddon/dateparse"
)

// listingRequest is the payload for the videos endpoint.
type listingRequest struct {
	Selection    string `json:"selection"`
	Offset       int    `json:"offset"`
	Limit        int    `json:"limit"`
	Advertisable bool   `json:"advertisable"`
}

// searchRequest is the payload for the search endpoint.
type searchRequest struct {
	Query  string `json:"query"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// listingResponse wraps the video array returned by listing endpoints.
type listingResponse struct {
	Videos []VideoItem `json:"videos"`
}

// VideoItem is one video entry as returned by the platform.
type VideoItem struct {
	VideoID       string `json:"video_id"`
	Title         string `json:"video_name"`
	Description   string `json:"description"`
	ThumbnailURL  string `json:"thumbnail_url"`
	MediaURL      string `json:"media_url"`
	DatePublished string `json:"date_published"`
	Duration      string `json:"duration"`
	ViewCount     int64  `json:"view_count"`
	ChannelName   string `json:"channel_name"`
}

// PublishedAt parses the upload date leniently; zero time when absent or
// unparseable.
func (v VideoItem) PublishedAt() time.Time {
	if v.DatePublished == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(v.DatePublished)
	if err != nil {
		logging.D(2, "Could not parse publish date %q for video %s: %v", v.DatePublished, v.VideoID, err)
		return time.Time{}
	}
	return t
}

// BuildTasks converts listing items into download tasks for the requested
// media kinds.
func BuildTasks(items []VideoItem, thumbnails, videos bool) []models.DownloadTask {
	tasks := make([]models.DownloadTask, 0, len(items)*2)

	for _, item := range items {
		if thumbnails && item.ThumbnailURL != "" {
			tasks = append(tasks, models.DownloadTask{
				URL:       item.ThumbnailURL,
				MediaKind: models.KindThumbnail,
				OwnerID:   item.VideoID,
				Title:     item.Title,
			})
		}
		if videos && item.MediaURL != "" {
			tasks = append(tasks, models.DownloadTask{
				URL:       item.MediaURL,
				MediaKind: models.KindVideo,
				OwnerID:   item.VideoID,
				Title:     item.Title,
			})
		}
	}

	return tasks
}
