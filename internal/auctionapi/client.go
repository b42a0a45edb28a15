package auctionapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/httpretry"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// Fetcher looks up auction metadata by code. Satisfied by Client and by the
// caching wrapper.
type Fetcher interface {
	GetAuction(ctx context.Context, code string) (*Details, error)
}

// Client talks to the AuctionMethod REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    httpretry.HTTPDoer
}

// NewClient builds a client from configuration. A nil doer gets a retrying
// client with the configured timeout.
func NewClient(cfg config.AuctionAPIConfig, doer httpretry.HTTPDoer) *Client {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    doer,
	}
}

// GetAuction fetches and formats auction metadata for the given code.
// Returns ErrNotFound for unknown codes and *APIError for other non-success
// responses.
func (c *Client) GetAuction(ctx context.Context, code string) (*Details, error) {
	url := fmt.Sprintf("%s/auction/%s", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-ApiKey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch auction %s: %w", code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read auction response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed auction response: %w", err)
	}
	if env.Message != "success" {
		return nil, &APIError{Message: env.Message}
	}

	details := formatDetails(code, env.Auction)
	logger.Info("auctionapi: fetched auction details", "auction_code", code, "title", details.Title)
	return details, nil
}

func formatDetails(code string, raw rawAuction) *Details {
	var date string
	if raw.Starts != "" {
		if ts, err := raw.Starts.Int64(); err == nil && ts > 0 {
			date = time.Unix(ts, 0).Format("2006-01-02")
		}
	}

	return &Details{
		AuctionCode: code,
		Title:       raw.Title,
		Description: CleanDescription(raw.Description),
		Date:        date,
		Time:        raw.Timezone,
		Location:    fmt.Sprintf("%s, %s, %s %s", raw.Address, raw.City, raw.State, raw.Zip),
		Manager:     ExtractManager(raw.Description),
	}
}
