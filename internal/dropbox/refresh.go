package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/httpretry"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

const tokenURL = "https://api.dropbox.com/oauth2/token"

// RefreshAccessToken exchanges a long-lived refresh token for a new access
// token. Dropbox access tokens expire after a few hours; deployments with a
// refresh token call this on a timer.
func RefreshAccessToken(ctx context.Context, doer httpretry.HTTPDoer, appKey, appSecret, refreshToken string) (string, time.Duration, error) {
	if doer == nil {
		doer = httpretry.NewRetryClient(nil, 3)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {appKey},
		"client_secret": {appSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := doer.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("dropbox: refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, fmt.Errorf("dropbox: read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, &APIError{StatusCode: resp.StatusCode, Summary: string(body)}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", 0, fmt.Errorf("dropbox: malformed token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", 0, fmt.Errorf("dropbox: token response missing access_token")
	}

	logger.Info("dropbox: refreshed access token", "expires_in_s", token.ExpiresIn)
	return token.AccessToken, time.Duration(token.ExpiresIn) * time.Second, nil
}

// SetAccessToken swaps the client's bearer token after a refresh.
func (c *Client) SetAccessToken(token string) { c.accessToken = token }
