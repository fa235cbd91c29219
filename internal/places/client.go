// Package places implements the nearby-places lookup over HTTP.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

// Client fetches nearby place records from a places API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// API response types.
type searchResponse struct {
	Results []placeResult `json:"results"`
	Status  string        `json:"status"`
}

type placeResult struct {
	Name     string   `json:"name"`
	PlaceID  string   `json:"place_id"`
	Vicinity string   `json:"vicinity"`
	Types    []string `json:"types"`
}

// NewClient creates a places client.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: places base URL", common.ErrMissingConfig)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// NearbySearch implements service.PlacesSearcher. Results keep the API's own
// ranking order.
func (c *Client) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.MerchantCandidate, error) {
	var candidates []model.MerchantCandidate

	operation := func() error {
		var err error
		candidates, err = c.search(ctx, lat, lng, radiusMeters)
		return err
	}

	if err := common.WithRetry(ctx, operation, service.RetryOptions{MaxAttempts: 3}); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *Client) search(ctx context.Context, lat, lng float64, radiusMeters int) ([]model.MerchantCandidate, error) {
	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	query.Set("radius", strconv.Itoa(radiusMeters))
	query.Set("rankby", "prominence")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/nearbysearch/json?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("places request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, common.ErrRateLimit
	case resp.StatusCode >= 500:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("places API returned %d", resp.StatusCode),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("places API returned %d: %s", resp.StatusCode, string(body)),
			Retryable: false,
		}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	candidates := make([]model.MerchantCandidate, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		candidates = append(candidates, model.MerchantCandidate{
			Name:     result.Name,
			PlaceID:  result.PlaceID,
			Address:  result.Vicinity,
			RawTypes: result.Types,
		})
	}
	return candidates, nil
}

// StaticSearcher is a config-driven searcher for hosts without a places API,
// returning the same canned candidates for every query.
type StaticSearcher struct {
	Candidates []model.MerchantCandidate
}

// NearbySearch implements service.PlacesSearcher.
func (s *StaticSearcher) NearbySearch(_ context.Context, _, _ float64, _ int) ([]model.MerchantCandidate, error) {
	return s.Candidates, nil
}
