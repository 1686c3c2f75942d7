package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veesix-networks/radvsup/internal/radvdmgr"
	"github.com/veesix-networks/radvsup/internal/watchdog"
)

// Readiness mirrors the /readyz response body.
type Readiness struct {
	Status  string               `json:"status"`
	Targets []watchdog.StateInfo `json:"targets,omitempty"`
}

// Client reads state from the radvsupd monitoring endpoint.
type Client struct {
	base string
	http *http.Client
}

func NewClient(server string) *Client {
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return &Client{
		base: strings.TrimSuffix(server, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Status(ctx context.Context) ([]radvdmgr.InterfaceStatus, error) {
	var out []radvdmgr.InterfaceStatus
	if err := c.getJSON(ctx, "/status", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// Readiness returns the watchdog view. A not-ready daemon answers 503 with
// the same body.
func (c *Client) Readiness(ctx context.Context) (*Readiness, error) {
	var out Readiness
	if err := c.getJSON(ctx, "/readyz", &out, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &out, nil
}

// Metrics returns the radvsup_ series from the Prometheus text exposition.
func (c *Client) Metrics(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/metrics", http.StatusOK)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "radvsup_") {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any, accept ...int) error {
	body, err := c.get(ctx, path, accept...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, accept ...int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	for _, code := range accept {
		if resp.StatusCode == code {
			return body, nil
		}
	}
	return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
}
