package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/httputil"
	"github.com/matzehuels/globe/pkg/integrations"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the chat model used for place descriptions.
	DefaultModel = "gpt-4o-mini"

	// DefaultMaxTokens bounds the length of a description.
	DefaultMaxTokens = 500

	// DefaultTemperature keeps descriptions varied between requests.
	DefaultTemperature = 0.9
)

// ErrNoKey is returned when the client has no API key.
var ErrNoKey = errors.New("openai: api key not configured")

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat completions call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse is the subset of the chat completions response we read.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Text returns the trimmed content of the first choice, or "".
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// CompletionRequest is a single system+user exchange.
type CompletionRequest struct {
	System      string
	User        string
	Model       string  // DefaultModel when empty
	MaxTokens   int     // DefaultMaxTokens when zero
	Temperature float64 // DefaultTemperature when zero
}

// Client calls the chat completions API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	apiKey  string
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string) *Client {
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "openai:", 0, headers),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

// WithBaseURL points the client at an API-compatible endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// Chat sends req and returns the decoded response. Transient failures are
// retried with backoff.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoKey
	}
	var resp ChatResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		return c.PostJSON(ctx, c.baseURL+"/chat/completions", nil, req, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Complete runs a single system+user exchange and returns the answer text.
// An empty answer is returned as "" with a nil error.
func (c *Client) Complete(ctx context.Context, r CompletionRequest) (string, error) {
	req := ChatRequest{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		Messages: []Message{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.User},
		},
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = DefaultTemperature
	}
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
