package analysis

import (
	"context"
	"encoding/json"
	"strings"

	_ "embed"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"go.uber.org/zap"
)

//go:embed prompts/advice.md
var advicePrompt string

// Advisor produces remediation advice for unmet items.
type Advisor struct {
	provider    ai.Provider
	temperature float32
	logger      *zap.Logger
}

func NewAdvisor(provider ai.Provider, temperature float32, log *zap.Logger) *Advisor {
	return &Advisor{provider: provider, temperature: temperature, logger: logger.OrNop(log)}
}

// UnmetItems returns decided, unmatched items: requirements first, then preferences.
func UnmetItems(r *Result) []Item {
	if r == nil || r.Failed() {
		return nil
	}

	var out []Item
	for _, g := range []Group{r.Requirements, r.Preferences} {
		for _, it := range g.Items {
			if it.Decided() && !it.Matched {
				out = append(out, it)
			}
		}
	}
	return out
}

type adviceResponse struct {
	Advice []AdviceItem `json:"advice"`
}

// Generate asks for advice on all unmet items in one call. It never fails:
// provider or parse errors are logged and yield an empty list.
func (a *Advisor) Generate(ctx context.Context, unmet []Item) []AdviceItem {
	if len(unmet) == 0 {
		return []AdviceItem{}
	}

	var b strings.Builder
	b.WriteString("[충족하지 못한 조건]\n")
	for _, it := range unmet {
		b.WriteString("- ")
		b.WriteString(it.Text)
		b.WriteString("\n")
	}

	log := logger.WithCommonFields(a.logger, a.provider.Name(), a.provider.Model())

	raw, err := a.provider.Complete(ctx, advicePrompt, strings.TrimSpace(b.String()), ai.Options{
		Temperature: a.temperature,
		JSON:        true,
	})
	if err != nil {
		log.Warn("advice generation failed", zap.Error(err))
		return []AdviceItem{}
	}

	cleaned := extractJSON(raw)
	if err := validateJSONString(adviceSchema, cleaned); err != nil {
		log.Warn("advice response rejected", zap.Error(err))
		return []AdviceItem{}
	}

	var resp adviceResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		log.Warn("advice response rejected", zap.Error(err))
		return []AdviceItem{}
	}

	out := make([]AdviceItem, 0, len(resp.Advice))
	for _, item := range resp.Advice {
		item.ItemText = strings.TrimSpace(item.ItemText)
		item.AdviceText = strings.TrimSpace(item.AdviceText)
		if item.ItemText == "" || item.AdviceText == "" {
			continue
		}
		out = append(out, item)
	}

	log.Debug("advice generated", zap.Int("items", len(out)))
	return out
}
