// Package botcheck verifies bot-challenge tokens on public form submissions.
package botcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/referrio/core/internal/config"
	"go.uber.org/zap"
)

// Client talks to the hosted verification endpoint.
type Client struct {
	cfg  config.BotCheckConfig
	log  *zap.Logger
	http *http.Client
}

func New(cfg config.BotCheckConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks a challenge token. Disabled config always passes. A network
// or decode failure passes too (logged) so the verifier's availability never
// gates patient intake; only an explicit rejection fails.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) bool {
	if !c.cfg.Enable {
		return true
	}
	if strings.TrimSpace(token) == "" {
		return false
	}

	form := url.Values{}
	form.Set("secret", c.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		c.log.Warn("bot check request build failed", zap.Error(err))
		return true
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("bot check unreachable", zap.Error(err))
		return true
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Warn("bot check decode failed", zap.Error(err))
		return true
	}
	return result.Success
}
