package lob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/httpretry"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// Client talks to the Lob REST API. Authentication is HTTP basic with the
// API key as username, per Lob's convention.
type Client struct {
	baseURL string
	apiKey  string
	http    httpretry.HTTPDoer
}

// NewClient builds a client from configuration. A nil doer gets a retrying
// client with the configured timeout.
func NewClient(cfg config.LobConfig, doer httpretry.HTTPDoer) *Client {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    doer,
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: lobErrorMessage(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("malformed response from %s: %w", path, err)
		}
	}
	return nil
}

// lobErrorMessage extracts Lob's error envelope, falling back to the raw
// body.
func lobErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(body)
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateCampaign creates an immediate-schedule campaign for the auction.
func (c *Client) CreateCampaign(ctx context.Context, auctionCode string) (string, error) {
	payload := map[string]interface{}{
		"name":          fmt.Sprintf("Neighbor Letters %s", auctionCode),
		"description":   fmt.Sprintf("Neighbor Letters - Auction %s", auctionCode),
		"schedule_type": "immediate",
	}

	var resp idResponse
	if err := c.post(ctx, "/campaigns", payload, &resp); err != nil {
		return "", err
	}
	logger.Info("lob: created campaign", "campaign_id", resp.ID, "auction_code", auctionCode)
	return resp.ID, nil
}

// CreateCreative attaches the letter template to a campaign.
func (c *Client) CreateCreative(ctx context.Context, campaignID, auctionCode, letterHTML string, from FromAddress) (string, error) {
	payload := map[string]interface{}{
		"campaign_id": campaignID,
		"description": fmt.Sprintf("Neighbor Letter Template - Auction %s", auctionCode),
		"from":        from,
		"file":        letterHTML,
		"details": map[string]string{
			"mail_type": "usps_first_class",
			"size":      "8.5x11",
		},
	}

	var resp idResponse
	if err := c.post(ctx, "/creatives", payload, &resp); err != nil {
		return "", err
	}
	logger.Info("lob: created creative", "creative_id", resp.ID, "campaign_id", campaignID)
	return resp.ID, nil
}

// CreateUpload attaches the recipient list to a campaign.
func (c *Client) CreateUpload(ctx context.Context, campaignID string, addresses []Address) (string, error) {
	payload := map[string]interface{}{
		"campaign_id": campaignID,
		"addresses":   addresses,
	}

	var resp idResponse
	if err := c.post(ctx, "/uploads", payload, &resp); err != nil {
		return "", err
	}
	logger.Info("lob: created upload", "upload_id", resp.ID, "campaign_id", campaignID, "address_count", len(addresses))
	return resp.ID, nil
}

// SendCampaign triggers printing and mailing. There is no undo past this
// point.
func (c *Client) SendCampaign(ctx context.Context, campaignID string) error {
	if err := c.post(ctx, fmt.Sprintf("/campaigns/%s/send", campaignID), map[string]interface{}{}, nil); err != nil {
		return err
	}
	logger.Info("lob: sent campaign", "campaign_id", campaignID)
	return nil
}

// VerifyAddress runs a US address verification.
func (c *Client) VerifyAddress(ctx context.Context, addr Address) (*Verification, error) {
	payload := map[string]string{
		"primary_line": addr.Line1,
		"city":         addr.City,
		"state":        addr.State,
		"zip_code":     addr.Zip,
	}

	var v Verification
	if err := c.post(ctx, "/us_verifications", payload, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
