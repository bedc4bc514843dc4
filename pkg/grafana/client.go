/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package grafana submits generated dashboards to the Grafana HTTP API.
package grafana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/pingtower/grafana-gen/pkg/config"
	"github.com/pingtower/grafana-gen/pkg/dashboard"
	"github.com/pingtower/grafana-gen/pkg/logger"
)

const (
	DefaultURL     = "http://localhost:3000/api/dashboards/db"
	DefaultTimeout = 10 * time.Second

	// PlaceholderAPIKey is the unconfigured API key default.
	PlaceholderAPIKey = "YOUR_GRAFANA_API_KEY"

	maxErrorBody = 4096
)

// Config holds the dashboard API endpoint and credentials.
type Config struct {
	URL     string          `json:"url"`
	APIKey  string          `json:"api_key"`
	Timeout config.Duration `json:"timeout"`
}

// createRequest is the body of POST /api/dashboards/db.
type createRequest struct {
	Dashboard *dashboard.Definition `json:"dashboard"`
	FolderID  int                   `json:"folderId"`
	Overwrite bool                  `json:"overwrite"`
}

// createResponse is the subset of Grafana's answer worth logging.
type createResponse struct {
	UID     string `json:"uid"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// Client creates dashboards through the Grafana API.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	http    HTTPClient
	logger  logger.Logger
	observe func(code int)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithResponseObserver registers a callback invoked with the status code of
// every answered request, or 0 when no answer was received.
func WithResponseObserver(fn func(code int)) Option {
	return func(cl *Client) {
		cl.observe = fn
	}
}

// NewClient builds a client for cfg.
func NewClient(cfg Config, log logger.Logger, opts ...Option) *Client {
	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		url:     strings.TrimSpace(cfg.URL),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateDashboard posts def without overwriting an existing dashboard. Only
// a 200 answer counts as success; Grafana's 412 for an existing uid is an
// error like any other.
func (c *Client) CreateDashboard(ctx context.Context, def *dashboard.Definition) error {
	if def == nil {
		return errNilDashboard
	}

	if c.url == "" {
		return errMissingURL
	}

	body, err := json.Marshal(createRequest{Dashboard: def, FolderID: 0, Overwrite: false})
	if err != nil {
		return fmt.Errorf("marshal dashboard %s: %w", def.UID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.New().String()

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(0)
		return fmt.Errorf("%w: POST %s: %w", ErrRemoteSubmissionFailed, c.url, err)
	}
	defer c.closeResponse(resp)

	c.record(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &SubmissionError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var created createResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&created); err != nil {
		c.logger.Debug().Err(err).Str("uid", def.UID).Msg("Could not decode Grafana response")
	}

	c.logger.Info().
		Str("uid", def.UID).
		Str("title", def.Title).
		Str("grafana_url", created.URL).
		Int("grafana_version", created.Version).
		Str("request_id", requestID).
		Msg("Dashboard created")

	return nil
}

func (c *Client) record(code int) {
	if c.observe != nil {
		c.observe(code)
	}
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
