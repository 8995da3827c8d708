// Package client implements the HTTP client for the remote command-execution
// service. The engine only sees two operations: Submit and Healthy.
//
// Submission failures are split along the exit-code taxonomy: transport
// failures, timeouts, and non-2xx statuses all mean "no response" (nil
// response, nil error), while failures building the request are real errors
// and classify as client-side exceptions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/msageha/mgapi/internal/model"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultTimeout        = 30 * time.Second
)

type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *log.Logger
}

// New builds a client from server config. Zero timeouts fall back to the
// defaults (5s connect, 30s overall).
func New(cfg model.ServerConfig, logger *log.Logger) *Client {
	connect := defaultConnectTimeout
	if cfg.ConnectTimeoutSec > 0 {
		connect = time.Duration(cfg.ConnectTimeoutSec) * time.Second
	}
	total := defaultTimeout
	if cfg.TimeoutSec > 0 {
		total = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpc: &http.Client{
			Timeout: total,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connect}).DialContext,
			},
		},
		logger: logger,
	}
}

// Submit posts one encoded command to /execute. A nil response with nil
// error means the server gave no usable response.
func (c *Client) Submit(ctx context.Context, command string) (*model.Response, error) {
	body, err := json.Marshal(map[string]string{"query": command})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logf("execute request failed: %v", err)
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logf("execute returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		return nil, nil
	}

	var out model.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logf("decode execute response: %v", err)
		return nil, nil
	}
	return &out, nil
}

// Healthy reports whether the server answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
