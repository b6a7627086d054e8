// Package api is a thin client for the platform's internal JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/errs"
	"vidarr/internal/utils/logging"
)

// Client issues authenticated calls against the platform API.
type Client struct {
	baseURL string
	origin  string
	http    *http.Client
}

// NewClient returns a client for the given API base URL. An empty baseURL
// uses the production endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = consts.APIBaseURL
	}
	return &Client{
		baseURL: baseURL,
		origin:  consts.SiteBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Probe makes the cheapest possible authenticated call to confirm a token
// is still accepted: one trending video, limit 1.
func (c *Client) Probe(ctx context.Context, token string) error {
	payload := listingRequest{
		Selection:    consts.SelectionTrendingDay,
		Offset:       0,
		Limit:        1,
		Advertisable: true,
	}

	body, err := c.post(ctx, consts.APIVideosEndpoint, token, payload)
	if err != nil {
		return err
	}
	defer body.Close()

	// Body content is irrelevant; a 2xx means the token is live.
	if _, err := io.Copy(io.Discard, io.LimitReader(body, 1<<16)); err != nil {
		return fmt.Errorf("failed to drain probe response: %w", err)
	}
	return nil
}

// Trending returns the trending listing for a timeframe selection
// (trending-day, trending-week, trending-month).
func (c *Client) Trending(ctx context.Context, token, selection string, limit int) ([]VideoItem, error) {
	return c.listVideos(ctx, token, listingRequest{
		Selection:    selection,
		Limit:        limit,
		Advertisable: true,
	})
}

// Popular returns the popular listing.
func (c *Client) Popular(ctx context.Context, token string, limit int) ([]VideoItem, error) {
	return c.listVideos(ctx, token, listingRequest{
		Selection:    consts.SelectionPopular,
		Limit:        limit,
		Advertisable: true,
	})
}

// Search queries the video search endpoint.
func (c *Client) Search(ctx context.Context, token, query string, limit int) ([]VideoItem, error) {
	payload := searchRequest{
		Query:  query,
		Offset: 0,
		Limit:  limit,
	}

	body, err := c.post(ctx, consts.APISearchEndpoint, token, payload)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return decodeListing(body)
}

// listVideos posts a listing request to the videos endpoint.
func (c *Client) listVideos(ctx context.Context, token string, payload listingRequest) ([]VideoItem, error) {
	body, err := c.post(ctx, consts.APIVideosEndpoint, token, payload)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return decodeListing(body)
}

// post issues an authenticated JSON POST and returns the streamed response
// body. Non-2xx statuses are classified into the error taxonomy.
func (c *Client) post(ctx context.Context, endpoint, token string, payload any) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.origin+"/")
	req.Header.Set("User-Agent", consts.UserAgent)
	if token != "" {
		req.Header.Set(consts.TokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}

	if err := errs.ClassifyStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		logging.D(1, "API call %s rejected: %v", endpoint, err)
		return nil, err
	}

	return resp.Body, nil
}

// decodeListing parses a videos/search response into items.
func decodeListing(r io.Reader) ([]VideoItem, error) {
	var parsed listingResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}
	return parsed.Videos, nil
}
