package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	defer func() { wait = originalWait }()

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "retry ok"}}},
		}},
	}, nil)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	output, err := g.Complete(context.Background(), "system", "message", ai.Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	for _, call := range chats.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	defer func() { wait = originalWait }()

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", nil, tempErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	_, err := g.Complete(context.Background(), "sys", "msg", ai.Options{})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || !pe.Temporary {
		t.Fatalf("expected temporary provider error, got %#v", err)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	chats.enqueue("gemini-pro", nil, quotaErr)

	g := &Generator{
		chats:      chats,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	_, err := g.Complete(context.Background(), "sys", "msg", ai.Options{})
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorSendsJSONConfig(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-flash", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "{\"ok\":true}"}}},
		}},
	}, nil)

	g := &Generator{chats: chats, model: "gemini-flash", maxRetries: 1, logger: zap.NewNop()}

	out, err := g.Complete(context.Background(), "sys", "msg", ai.Options{Temperature: 0.1, JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected output: %q", out)
	}

	cfg := chats.calls[0].config
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.1 {
		t.Fatalf("unexpected temperature: %v", cfg.Temperature)
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	_, err := g.Complete(context.Background(), "sys", "msg", ai.Options{})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if pe.Temporary {
		t.Fatalf("auth failures must not be temporary")
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{chats: newFakeChatCreator(), model: "gemini-pro", logger: zap.NewNop()}

	if _, err := g.Complete(context.Background(), "sys", "  ", ai.Options{}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestQuotaDelay(t *testing.T) {
	tests := []struct {
		name string
		err  genai.APIError
		want time.Duration
	}{
		{
			name: "details retry delay",
			err:  genai.APIError{Details: []map[string]any{{"@type": "RetryInfo", "retryDelay": "45s"}}},
			want: 45 * time.Second,
		},
		{
			name: "message retry after",
			err:  genai.APIError{Message: "quota exhausted, retry after 12.5 seconds"},
			want: 12500 * time.Millisecond,
		},
		{
			name: "no hint",
			err:  genai.APIError{Message: "quota exhausted"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quotaDelay(tt.err); got != tt.want {
				t.Fatalf("quotaDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeneratorStopsRetryingWhenContextEnds(t *testing.T) {
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return context.Canceled }
	defer func() { wait = originalWait }()

	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"})

	g := &Generator{chats: chats, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	_, err := g.Complete(context.Background(), "sys", "msg", ai.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chats.calls))
	}
}
