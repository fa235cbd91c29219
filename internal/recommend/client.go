// Package recommend fetches ranked card recommendations from the
// recommendation service.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

// Client fetches recommendations over HTTP. The ranking itself lives behind
// the API; the client only preserves its order.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userID     string
}

// API response types.
type recommendResponse struct {
	Recommendations []recommendation `json:"recommendations"`
}

type recommendation struct {
	CardID           string  `json:"card_id"`
	CardName         string  `json:"card_name"`
	Bank             string  `json:"bank"`
	ConditionsNote   string  `json:"conditions_note"`
	MonthlyCapAmount *string `json:"monthly_cap_amount"`
	RemainingCap     *string `json:"remaining_cap"`
	EarnRateMPD      float64 `json:"earn_rate_mpd"`
	BaseRateMPD      float64 `json:"base_rate_mpd"`
	IsRecommended    bool    `json:"is_recommended"`
}

// NewClient creates a recommendation client.
func NewClient(baseURL, apiKey, userID string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: recommend base URL", common.ErrMissingConfig)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Recommend implements service.Recommender.
func (c *Client) Recommend(ctx context.Context, category model.Category) ([]model.Recommendation, error) {
	var recs []model.Recommendation

	operation := func() error {
		var err error
		recs, err = c.fetch(ctx, category)
		return err
	}

	if err := common.WithRetry(ctx, operation, service.RetryOptions{MaxAttempts: 3}); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) fetch(ctx context.Context, category model.Category) ([]model.Recommendation, error) {
	query := url.Values{}
	query.Set("category", string(category))
	if c.userID != "" {
		query.Set("user_id", c.userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/recommendations?%s", c.baseURL, query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("recommendation request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, common.ErrRateLimit
	case resp.StatusCode >= 500:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("recommendation API returned %d", resp.StatusCode),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("recommendation API returned %d: %s", resp.StatusCode, string(body)),
			Retryable: false,
		}
	}

	var parsed recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}

	recs := make([]model.Recommendation, 0, len(parsed.Recommendations))
	for _, r := range parsed.Recommendations {
		rec := model.Recommendation{
			CardID:         r.CardID,
			CardName:       r.CardName,
			Bank:           r.Bank,
			ConditionsNote: r.ConditionsNote,
			EarnRateMPD:    r.EarnRateMPD,
			BaseRateMPD:    r.BaseRateMPD,
			IsRecommended:  r.IsRecommended,
		}
		if r.MonthlyCapAmount != nil {
			if amount, err := decimal.NewFromString(*r.MonthlyCapAmount); err == nil {
				rec.MonthlyCapAmount = &amount
			}
		}
		if r.RemainingCap != nil {
			if amount, err := decimal.NewFromString(*r.RemainingCap); err == nil {
				rec.RemainingCap = &amount
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
