package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompts/seoul.md
var seoulPrompt string

//go:embed prompts/work24.md
var work24Prompt string

const defaultMaxLogLength = 200

// Extractor turns a posting and a resume into a classified Result with one LLM call.
// It does not consult any cache; callers guard it.
type Extractor struct {
	provider    ai.Provider
	temperature float32
	maxLogLen   int
	logger      *zap.Logger
}

func NewExtractor(provider ai.Provider, temperature float32, maxLogLength int, log *zap.Logger) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Extractor{
		provider:    provider,
		temperature: temperature,
		maxLogLen:   maxLogLength,
		logger:      logger.OrNop(log),
	}
}

// SystemPrompt returns the prompt used for postings of the given source.
func SystemPrompt(source jobs.SourceType) string {
	if source == jobs.SourceWork24 {
		return work24Prompt
	}
	return seoulPrompt
}

// Extract runs the qualification extraction. Provider failures are returned as
// *ai.ProviderError and malformed responses as *ParseError.
func (e *Extractor) Extract(ctx context.Context, posting *jobs.Posting, resumeText string) (*Result, error) {
	if posting == nil {
		return nil, errors.New("posting is required")
	}
	if !posting.Source.Analyzable() {
		return nil, ErrUnsupportedSource
	}

	prompt := buildUserPrompt(posting, resumeText)
	log := logger.WithFields(
		logger.WithCommonFields(e.logger, e.provider.Name(), e.provider.Model()),
		logger.JobFields(posting.ID, string(posting.Source))...,
	)

	log.Debug("extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.provider.Complete(ctx, SystemPrompt(posting.Source), prompt, ai.Options{
		Temperature: e.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, ai.NewProviderError(e.provider.Name(), err, true)
	}

	log.Debug("extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	result, err := ParseExtraction(raw)
	if err != nil {
		return nil, err
	}

	result.JobID = posting.ID
	result.SourceType = posting.Source
	ApplyRules(result)

	log.Info("extraction completed",
		zap.Int("requirements", result.Requirements.Total()),
		zap.Int("preferences", result.Preferences.Total()),
		zap.Int("pending", result.Requirements.Pending()+result.Preferences.Pending()),
	)

	return result, nil
}

func buildUserPrompt(posting *jobs.Posting, resumeText string) string {
	var b strings.Builder
	b.WriteString("[채용 공고]\n")
	b.WriteString(posting.ExtractionText())

	if resumeText = strings.TrimSpace(resumeText); resumeText != "" {
		b.WriteString("\n\n[지원자 이력서]\n")
		b.WriteString(resumeText)
	}

	return b.String()
}

// ParseExtraction validates and decodes a raw extraction response.
func ParseExtraction(raw string) (*Result, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, &ParseError{Raw: raw, Err: errors.New("empty response")}
	}

	if err := validateJSONString(extractionSchema, cleaned); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}

	return &result, nil
}
