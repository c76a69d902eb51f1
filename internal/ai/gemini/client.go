package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 3
	defaultMaxLogLength = 200
	retryBaseDelay      = 2 * time.Second
	maxQuotaDelay       = 30 * time.Second
	jsonMIMEType        = "application/json"
)

// wait pauses between retries; it returns early when ctx ends.
var wait = utils.WaitFor

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey       string
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Generator sends one-shot chat requests to Gemini. It implements ai.Provider.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

var _ ai.Provider = (*Generator)(nil)

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: cfg.MaxRetries,
		maxLogLen:  cfg.MaxLogLength,
		logger:     logger.OrNop(log),
	}, nil
}

func (g *Generator) Name() string { return ProviderName }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete sends userPrompt with systemPrompt as the system instruction. Temporary
// API errors are retried with a linear backoff; quota errors asking for a long
// delay are returned at once.
func (g *Generator) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ai.Options) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if system := strings.TrimSpace(systemPrompt); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.JSON {
		config.ResponseMIMEType = jsonMIMEType
	}

	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	log := logger.WithCommonFields(g.logger, ProviderName, g.model)
	maxLogLen := g.maxLogLen
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	log.Debug("gemini request",
		zap.Int("prompt_length", utf8.RuneCountInString(userPrompt)),
		zap.String("prompt_preview", utils.TruncateForLog(userPrompt, maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		output, err := g.send(ctx, config, userPrompt)
		if err == nil {
			log.Debug("gemini response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, maxLogLen)),
			)
			return output, nil
		}
		lastErr = err

		retry, temporary := classify(err)
		if !retry || attempt == attempts {
			return "", ai.NewProviderError(ProviderName, err, temporary)
		}

		delay := retryBaseDelay * time.Duration(attempt)
		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", ai.NewProviderError(ProviderName, err, true)
		}
	}

	return "", ai.NewProviderError(ProviderName, lastErr, true)
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, prompt string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned nil response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(?:s|sec|secs|seconds)\b`)

// classify reports whether err may be retried and whether it is temporary at all.
func classify(err error) (retry, temporary bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, true
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false, true
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		if quotaDelay(apiErr) > maxQuotaDelay {
			return false, true
		}
		return true, true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, true
	default:
		return false, false
	}
}

func quotaDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}

	if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}
