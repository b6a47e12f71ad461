package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the daemon bound at addr (host:port).
func NewClient(addr string) *Client {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quota fetches the budget snapshot.
func (c *Client) Quota(ctx context.Context) (*QuotaStatus, error) {
	var resp QuotaStatus
	if err := c.get(ctx, "/api/quota", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Insights fetches decay-adjusted analyzer results for one category.
func (c *Client) Insights(ctx context.Context, category string) (*InsightsResponse, error) {
	var resp InsightsResponse
	path := "/api/insights?category=" + url.QueryEscape(category)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Trigger asks the daemon to run a task ahead of schedule.
func (c *Client) Trigger(ctx context.Context, task string) (*TriggerResponse, error) {
	endpoint := c.baseURL + "/api/tasks/" + url.PathEscape(task) + "/trigger"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp TriggerResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
