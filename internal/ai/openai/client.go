package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"go.uber.org/zap"
)

const (
	ProviderName = "openai"

	defaultURL     = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
)

// Config holds the OpenAI provider settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// URL overrides the Chat Completions endpoint.
	URL string
}

// Client calls the OpenAI Chat Completions API. It implements ai.Provider.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ai.Provider = (*Client)(nil)

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = defaultURL
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.OrNop(log),
	}, nil
}

func (c *Client) Name() string  { return ProviderName }
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ai.Options) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system := strings.TrimSpace(systemPrompt); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	temp := opts.Temperature
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temp,
	}
	if opts.JSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", ai.NewProviderError(ProviderName, fmt.Errorf("openai request timeout: %w", err), true)
		}
		return "", ai.NewProviderError(ProviderName, err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ai.NewProviderError(ProviderName, fmt.Errorf("read openai response: %w", err), true)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ai.NewProviderError(ProviderName, fmt.Errorf("openai response parse (status %d): %w", resp.StatusCode, err), temporaryStatus(resp.StatusCode))
	}
	if parsed.Error != nil {
		return "", ai.NewProviderError(ProviderName, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type), temporaryStatus(resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", ai.NewProviderError(ProviderName, fmt.Errorf("openai status %d", resp.StatusCode), temporaryStatus(resp.StatusCode))
	}
	if len(parsed.Choices) == 0 {
		return "", ai.NewProviderError(ProviderName, errors.New("openai response missing choices"), false)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ai.NewProviderError(ProviderName, errors.New("openai response empty content"), false)
	}

	if parsed.Usage != nil {
		logger.WithCommonFields(c.logger, ProviderName, c.model).Debug("openai usage",
			zap.Int("prompt_tokens", parsed.Usage.PromptTokens),
			zap.Int("completion_tokens", parsed.Usage.CompletionTokens),
			zap.Int("total_tokens", parsed.Usage.TotalTokens),
		)
	}

	return content, nil
}

func temporaryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
