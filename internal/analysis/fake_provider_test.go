package analysis

import (
	"context"
	"sync"

	"github.com/spigell/seoul-job-matcher/internal/ai"
)

type providerCall struct {
	system string
	user   string
	opts   ai.Options
}

type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []providerCall
}

func (f *fakeProvider) Complete(_ context.Context, systemPrompt, userPrompt string, opts ai.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, providerCall{system: systemPrompt, user: userPrompt, opts: opts})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
