// Package zoneusage proxies the upstream bandwidth-usage reporting API and
// aggregates its per-day figures into a summary.
package zoneusage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DayUsage is one calendar day of upstream usage.
type DayUsage struct {
	Requests  int64 `json:"requests"`
	Bandwidth int64 `json:"bandwidth"`
}

type Summary struct {
	TotalBandwidth int64  `json:"totalBandwidth"`
	TotalRequests  int64  `json:"totalRequests"`
	DateRange      string `json:"dateRange"`
}

// Report is the aggregated usage response served to clients.
type Report struct {
	Data    map[string]DayUsage `json:"data"`
	Summary Summary             `json:"summary"`
}

// Client talks to the upstream usage API for one zone.
type Client struct {
	baseURL    string
	zone       string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, zone, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		zone:       zone,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Usage fetches the per-day usage between from and to (inclusive,
// YYYY-MM-DD) and computes the summary totals.
func (c *Client) Usage(ctx context.Context, from, to string) (*Report, error) {
	if c.baseURL == "" {
		return nil, errors.New("zone usage API is not configured")
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("zone usage base url: %w", err)
	}

	q := endpoint.Query()
	if c.zone != "" {
		q.Set("zone", c.zone)
	}
	q.Set("from", from)
	q.Set("to", to)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch zone usage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("zone usage upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var perDay map[string]DayUsage
	if err := json.Unmarshal(body, &perDay); err != nil {
		return nil, fmt.Errorf("parse zone usage response: %w", err)
	}

	report := &Report{
		Data: perDay,
		Summary: Summary{
			DateRange: from + " to " + to,
		},
	}
	for _, day := range perDay {
		report.Summary.TotalRequests += day.Requests
		report.Summary.TotalBandwidth += day.Bandwidth
	}
	return report, nil
}
