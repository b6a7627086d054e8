package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/models"
)

// TestProbe tests the cheap validation call against each response class.
func TestProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"accepted", http.StatusOK, nil},
		{"unauthorized", http.StatusUnauthorized, errs.ErrAuthRejected},
		{"forbidden", http.StatusForbidden, errs.ErrAuthRejected},
		{"rate limited", http.StatusTooManyRequests, errs.ErrServer},
		{"server error", http.StatusInternalServerError, errs.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"videos":[]}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second)
			err := c.Probe(context.Background(), "sometoken")

			if tt.wantErr == nil && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestProbeRequestShape tests the probe payload and headers.
func TestProbeRequestShape(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotToken   string
		gotPayload listingRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get(consts.TokenHeader)
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"videos":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if err := c.Probe(context.Background(), "probe-token"); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if gotPath != consts.APIVideosEndpoint {
		t.Errorf("expected path %s, got %s", consts.APIVideosEndpoint, gotPath)
	}
	if gotToken != "probe-token" {
		t.Errorf("expected token header, got %q", gotToken)
	}
	if gotPayload.Selection != consts.SelectionTrendingDay || gotPayload.Limit != 1 {
		t.Errorf("probe should request one trending video, got %+v", gotPayload)
	}
}

// TestTrendingDecodesItems tests listing response decoding.
func TestTrendingDecodesItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos":[
			{"video_id":"abc","video_name":"First","thumbnail_url":"https://cdn/t1.jpg","media_url":"https://cdn/v1.mp4","view_count":42},
			{"video_id":"def","video_name":"Second","thumbnail_url":"https://cdn/t2.jpg","media_url":"https://cdn/v2.mp4"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	items, err := c.Trending(context.Background(), "tok", consts.SelectionTrendingDay, 10)
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].VideoID != "abc" || items[0].Title != "First" || items[0].ViewCount != 42 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

// TestSearch tests the search endpoint payload.
func TestSearch(t *testing.T) {
	t.Parallel()

	var gotPayload searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != consts.APISearchEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"videos":[{"video_id":"xyz","video_name":"Found"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	items, err := c.Search(context.Background(), "tok", "cats", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotPayload.Query != "cats" || gotPayload.Limit != 5 {
		t.Errorf("unexpected search payload: %+v", gotPayload)
	}
	if len(items) != 1 || items[0].VideoID != "xyz" {
		t.Errorf("unexpected items: %+v", items)
	}
}

// TestBuildTasks tests task generation per media kind selection.
func TestBuildTasks(t *testing.T) {
	t.Parallel()

	items := []VideoItem{
		{VideoID: "a", Title: "Full", ThumbnailURL: "https://cdn/t.jpg", MediaURL: "https://cdn/v.mp4"},
		{VideoID: "b", Title: "ThumbOnly", ThumbnailURL: "https://cdn/t2.jpg"},
		{VideoID: "c", Title: "Bare"},
	}

	both := BuildTasks(items, true, true)
	if len(both) != 3 {
		t.Errorf("expected 3 tasks for both kinds, got %d", len(both))
	}

	thumbs := BuildTasks(items, true, false)
	if len(thumbs) != 2 {
		t.Errorf("expected 2 thumbnail tasks, got %d", len(thumbs))
	}
	for _, task := range thumbs {
		if task.MediaKind != models.KindThumbnail {
			t.Errorf("expected thumbnail kind, got %s", task.MediaKind)
		}
	}

	videos := BuildTasks(items, false, true)
	if len(videos) != 1 || videos[0].OwnerID != "a" {
		t.Errorf("unexpected video tasks: %+v", videos)
	}
}

// TestPublishedAt tests lenient date parsing.
func TestPublishedAt(t *testing.T) {
	t.Parallel()

	v := VideoItem{DatePublished: "2026-08-20T12:00:00Z"}
	got := v.PublishedAt()
	if got.Year() != 2026 || got.Month() != time.August {
		t.Errorf("unexpected parsed date %v", got)
	}

	if !(VideoItem{}).PublishedAt().IsZero() {
		t.Error("empty date should parse to zero time")
	}
	if !(VideoItem{DatePublished: "not a date"}).PublishedAt().IsZero() {
		t.Error("garbage date should parse to zero time")
	}
}
