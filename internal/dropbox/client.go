// Package dropbox is a minimal client for the Dropbox HTTP API covering
// what the letter workflow needs: finding an auction's folder, uploading
// artifacts, and producing shareable links.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mclemoreauction/neighbor-letters/internal/config"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/httpretry"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

const (
	apiBase     = "https://api.dropboxapi.com/2"
	contentBase = "https://content.dropboxapi.com/2"
)

// Typed errors. Transient failures surface as *APIError.
var (
	ErrNotFound   = errors.New("dropbox: path not found")
	ErrPermission = errors.New("dropbox: access denied")
)

// APIError is an unexpected response from Dropbox.
type APIError struct {
	StatusCode int
	Summary    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropbox API returned status %d: %s", e.StatusCode, e.Summary)
}

// Entry is one file or folder.
type Entry struct {
	Tag         string `json:".tag"`
	Name        string `json:"name"`
	PathLower   string `json:"path_lower"`
	PathDisplay string `json:"path_display"`
}

// Client talks to the Dropbox API.
type Client struct {
	accessToken string
	rootPath    string
	http        httpretry.HTTPDoer

	// overridable in tests
	api     string
	content string
}

// NewClient builds a client from configuration. A nil doer gets a retrying
// client with the configured timeout.
func NewClient(cfg config.DropboxConfig, doer httpretry.HTTPDoer) *Client {
	if doer == nil {
		doer = httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 3)
	}
	return &Client{
		accessToken: cfg.AccessToken,
		rootPath:    cfg.RootPath,
		http:        doer,
		api:         apiBase,
		content:     contentBase,
	}
}

func (c *Client) rpc(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dropbox: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("dropbox: read response: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("dropbox: malformed response from %s: %w", path, err)
		}
	}
	return nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict && bytes.Contains(body, []byte("not_found")):
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrPermission
	default:
		summary := string(body)
		var envelope struct {
			ErrorSummary string `json:"error_summary"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.ErrorSummary != "" {
			summary = envelope.ErrorSummary
		}
		return &APIError{StatusCode: status, Summary: summary}
	}
}

// FindAuctionFolder locates the auction's folder by code prefix under the
// configured root.
func (c *Client) FindAuctionFolder(ctx context.Context, auctionCode string) (*Entry, error) {
	payload := map[string]interface{}{
		"query": auctionCode,
		"options": map[string]interface{}{
			"path":            c.rootPath,
			"max_results":     25,
			"file_categories": []string{},
		},
	}

	var result struct {
		Matches []struct {
			Metadata struct {
				Metadata Entry `json:"metadata"`
			} `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.rpc(ctx, "/files/search_v2", payload, &result); err != nil {
		return nil, err
	}

	for _, m := range result.Matches {
		entry := m.Metadata.Metadata
		if entry.Tag == "folder" && strings.HasPrefix(entry.Name, auctionCode) {
			return &entry, nil
		}
	}
	return nil, ErrNotFound
}

// Upload writes content to path, overwriting any existing file.
func (c *Client) Upload(ctx context.Context, path string, content []byte) (*Entry, error) {
	arg, err := json.Marshal(map[string]interface{}{
		"path": path,
		"mode": "overwrite",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.content+"/files/upload", bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("dropbox: read response: %w", err)
	}
	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(respBody, &entry); err != nil {
		return nil, fmt.Errorf("dropbox: malformed upload response: %w", err)
	}
	logger.Info("dropbox: uploaded file", "path", entry.PathDisplay, "bytes", len(content))
	return &entry, nil
}

// SharedLink returns a public URL for path, reusing an existing link when
// one exists.
func (c *Client) SharedLink(ctx context.Context, path string) (string, error) {
	var created struct {
		URL string `json:"url"`
	}
	err := c.rpc(ctx, "/sharing/create_shared_link_with_settings",
		map[string]string{"path": path}, &created)
	if err == nil {
		return created.URL, nil
	}

	// shared_link_already_exists comes back as 409; fetch the existing one.
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !strings.Contains(apiErr.Summary, "shared_link_already_exists") {
		return "", err
	}

	var listing struct {
		Links []struct {
			URL string `json:"url"`
		} `json:"links"`
	}
	if err := c.rpc(ctx, "/sharing/list_shared_links",
		map[string]interface{}{"path": path, "direct_only": true}, &listing); err != nil {
		return "", err
	}
	if len(listing.Links) == 0 {
		return "", ErrNotFound
	}
	return listing.Links[0].URL, nil
}
