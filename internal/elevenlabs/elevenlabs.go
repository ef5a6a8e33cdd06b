// Package elevenlabs provides a thin client for the ElevenLabs conversational
// agent platform: ephemeral signed connection URLs and the text-only coach
// chat endpoint. Upstream failures are logged with status and body server-side
// and surfaced to callers as generic errors.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.elevenlabs.io"

const (
	signedURLPath = "/v1/convai/conversation/get-signed-url"
	chatPath      = "/v1/convai/chat"
)

// coachSystemPrompt steers the single-turn text coach replies.
const coachSystemPrompt = "You are a concise reflection coach. Keep replies under 60 words. " +
	"Ask for concrete details or offer one specific improvement tied to the prompt."

// Client calls the ElevenLabs conversational API with a service credential.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL; tests point this at a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an ElevenLabs client for the given service credential.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a service credential is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchSignedURL requests an ephemeral signed connection URL for the agent.
func (c *Client) FetchSignedURL(ctx context.Context, agentID string) (string, error) {
	endpoint := c.baseURL + signedURLPath + "?agent_id=" + url.QueryEscape(agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build signed URL request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("signed URL request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("Client.FetchSignedURL: upstream returned non-OK status", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("signed URL request returned status %d", resp.StatusCode)
	}

	var data struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode signed URL response: %w", err)
	}
	if data.SignedURL == "" {
		return "", fmt.Errorf("upstream did not return a signed URL")
	}
	return data.SignedURL, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	AgentID  string        `json:"agent_id"`
	Messages []chatMessage `json:"messages"`
}

// CoachReply requests a single-turn coaching reply for one answer. Agents must
// allow text chat.
func (c *Client) CoachReply(ctx context.Context, questionText, userMessage, agentID string) (string, error) {
	payload := chatRequest{
		AgentID: agentID,
		Messages: []chatMessage{
			{Role: "system", Content: coachSystemPrompt},
			{Role: "user", Content: "Prompt: " + questionText + "\nUser answer: " + userMessage},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Error("Client.CoachReply: upstream returned non-OK status", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("chat request returned status %d", resp.StatusCode)
	}

	// The API returns {output: [{content: "..."}, ...]} or {message: "..."}.
	var data struct {
		Output []struct {
			Content string `json:"content"`
		} `json:"output"`
		Message string `json:"message"`
		Reply   string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(data.Output) > 0 && data.Output[0].Content != "" {
		return data.Output[0].Content, nil
	}
	if data.Message != "" {
		return data.Message, nil
	}
	return data.Reply, nil
}
