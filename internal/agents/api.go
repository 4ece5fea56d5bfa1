package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient talks to the agents HTTP API.
type APIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewAPIClient builds a client for the given endpoint. The key is sent
// as a bearer token on every request.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type agentPayload struct {
	Name         string            `json:"name"`
	Prompt       string            `json:"prompt"`
	FirstMessage string            `json:"first_message,omitempty"`
	Language     string            `json:"language,omitempty"`
	Model        string            `json:"model,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
}

func toPayload(cfg AgentConfig) agentPayload {
	return agentPayload{
		Name:         cfg.Name,
		Prompt:       cfg.Prompt,
		FirstMessage: cfg.FirstMessage,
		Language:     cfg.Language,
		Model:        cfg.Model,
		Tags:         cfg.Tags,
		Variables:    cfg.Variables,
	}
}

func (c *APIClient) CreateAgent(ctx context.Context, cfg AgentConfig) (string, error) {
	var resp struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/agents", toPayload(cfg), &resp); err != nil {
		return "", err
	}
	if resp.AgentID == "" {
		return "", fmt.Errorf("agents API returned no agent_id")
	}
	return resp.AgentID, nil
}

func (c *APIClient) UpdateAgent(ctx context.Context, agentID string, cfg AgentConfig) error {
	return c.do(ctx, http.MethodPatch, "/v1/agents/"+agentID, toPayload(cfg), nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agents API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("agents API %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
