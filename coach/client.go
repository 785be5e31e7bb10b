// Package coach talks to the remote narrative-generation service that turns
// parsed activity summaries into free-text coaching commentary and short
// training plans.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	runcoach "github.com/strideworks/runcoach"
)

// Config holds the coach service connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ConfigFromEnv reads COACH_API_URL, COACH_API_KEY and COACH_MODEL. Load a
// .env file first (godotenv) if the caller wants file-based configuration.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL: os.Getenv("COACH_API_URL"),
		APIKey:  os.Getenv("COACH_API_KEY"),
		Model:   os.Getenv("COACH_MODEL"),
		Timeout: 30 * time.Second,
	}
	return cfg
}

// Client is an HTTP client for the narrative service.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// NewClient creates a coach client. A zero timeout defaults to 30 seconds.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("coach: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}, nil
}

// Commentary sends the condensed summary plus split list and returns the
// service's free-text coaching commentary.
func (c *Client) Commentary(ctx context.Context, a *runcoach.ParsedActivity, goal string) (string, error) {
	summary, splits := Condense(a)
	req := CommentaryRequest{
		Model:   c.cfg.Model,
		Goal:    goal,
		Summary: summary,
		Splits:  splits,
	}

	var resp CommentaryResponse
	if err := c.post(ctx, "/v1/commentary", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Commentary) == "" {
		return "", fmt.Errorf("coach: empty commentary in response")
	}
	return resp.Commentary, nil
}

// Plan asks the service for a training plan toward a goal, given recent
// session summaries.
func (c *Client) Plan(ctx context.Context, goal string, recent []Summary) ([]PlanEntry, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, fmt.Errorf("coach: goal is required")
	}
	req := PlanRequest{
		Model:  c.cfg.Model,
		Goal:   goal,
		Recent: recent,
	}

	var resp PlanResponse
	if err := c.post(ctx, "/v1/plan", req, &resp); err != nil {
		return nil, err
	}
	return resp.Plan, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("coach: encode request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("coach: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coach: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coach: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coach: decode response: %w", err)
	}
	return nil
}
