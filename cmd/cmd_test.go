package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(newTestViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "memory", config.Cache.Backend)
	assert.Equal(t, 24*time.Hour, config.Cache.TTL)
	assert.Equal(t, 5*time.Minute, config.Cache.InFlightTTL)
	assert.Equal(t, 60*time.Second, config.Cache.Cooldown)
	assert.Equal(t, "gemini", config.AI.Provider)
	assert.Equal(t, 3, config.AI.Gemini.MaxRetries)
	assert.True(t, config.Advice.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	config, err := loadConfig(newTestViper(t, `
cache:
  backend: redis
  redis-url: redis://localhost:6379/0
  cooldown: 90s
ai:
  provider: openai
  requests-per-minute: 30
  openai:
    model: gpt-4o
    timeout: 30s
data:
  jobs-file: jobs.json
`))
	require.NoError(t, err)

	assert.Equal(t, "redis", config.Cache.Backend)
	assert.Equal(t, 90*time.Second, config.Cache.Cooldown)
	assert.Equal(t, "openai", config.AI.Provider)
	assert.Equal(t, 30, config.AI.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, config.AI.OpenAI.Timeout)
	assert.Equal(t, "jobs.json", config.Data.JobsFile)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown cache backend", yaml: "cache:\n  backend: memcached\n"},
		{name: "redis without url", yaml: "cache:\n  backend: redis\n"},
		{name: "unknown provider", yaml: "ai:\n  provider: claude\n"},
		{name: "temperature out of range", yaml: "ai:\n  temperature: 3\n"},
		{name: "timeout outlives in-flight claim", yaml: "analysis:\n  timeout: 10m\ncache:\n  in-flight-ttl: 5m\n"},
		{name: "timeout equals in-flight claim", yaml: "analysis:\n  timeout: 5m\ncache:\n  in-flight-ttl: 5m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(newTestViper(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestDefaultTimeoutsFitInFlightClaim(t *testing.T) {
	config, err := loadConfig(newTestViper(t, ""))
	require.NoError(t, err)
	assert.Less(t, config.Analysis.Timeout, config.Cache.InFlightTTL)
}

func TestEnvOverridesConfig(t *testing.T) {
	t.Setenv("JOBMATCH_CACHE_BACKEND", "sql")
	t.Setenv("JOBMATCH_DATABASE_URL", "postgres://matcher@localhost/jobs")

	v := newTestViper(t, "")
	bindEnv(v)

	config, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "sql", config.Cache.Backend)
	assert.Equal(t, "postgres://matcher@localhost/jobs", config.Database.URL)
}

type fakeService struct {
	outcomes  map[string]matching.Outcome
	submitted [][]analysis.Answer
	waited    bool
}

func (f *fakeService) AnalyzeMany(_ context.Context, _ string, jobIDs []string) map[string]matching.Outcome {
	out := make(map[string]matching.Outcome)
	for _, id := range jobIDs {
		out[id] = f.outcomes[id]
	}
	return out
}

func (f *fakeService) SubmitAnswers(_ context.Context, _ string, jobID string, answers []analysis.Answer) matching.Outcome {
	f.submitted = append(f.submitted, answers)
	score := 100
	for _, a := range answers {
		if !a.Value {
			score = 70
		}
	}
	o := matching.Outcome{JobID: jobID, State: matching.StateScored, Score: &score}
	f.outcomes[jobID] = o
	return o
}

func (f *fakeService) RequestAnalysis(_ context.Context, _ string, jobID string) matching.Outcome {
	return f.outcomes[jobID]
}

func (f *fakeService) Wait() { f.waited = true }

func TestAnalyzeJobsAsksClarifications(t *testing.T) {
	pending := &analysis.Result{
		JobID:       "seoul-1",
		Preferences: analysis.Group{Items: []analysis.Item{{Text: "성실한 분", ClarificationNeeded: true}}},
	}
	svc := &fakeService{outcomes: map[string]matching.Outcome{
		"seoul-1": {
			JobID:     "seoul-1",
			State:     matching.StateNeedsClarification,
			Result:    pending,
			Questions: analysis.ExtractQuestions(pending),
		},
		"gov-1": {JobID: "gov-1", State: matching.StateUnsupported, Message: "이 공고는 적합도 분석을 지원하지 않습니다."},
	}}

	var asked []string
	orig := askYesNo
	askYesNo = func(label string) (bool, error) {
		asked = append(asked, label)
		return true, nil
	}
	t.Cleanup(func() { askYesNo = orig })

	var out bytes.Buffer
	err := analyzeJobs(context.Background(), svc, "user-1", []string{"seoul-1", "gov-1", "seoul-1"}, true, &out, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"'성실한 분' 조건에 해당하시나요?"}, asked)
	require.Len(t, svc.submitted, 1)
	assert.Equal(t, []analysis.Answer{{Group: analysis.GroupPreference, ItemIndex: 0, Value: true}}, svc.submitted[0])
	assert.True(t, svc.waited)

	text := out.String()
	assert.Contains(t, text, "== gov-1: unsupported")
	assert.Contains(t, text, "지원하지 않습니다")
	assert.Equal(t, 1, strings.Count(text, "== seoul-1"))
	assert.Contains(t, text, "== seoul-1: scored\n적합도: 100점")
}

func TestAnalyzeJobsStopsOnInterrupt(t *testing.T) {
	pending := &analysis.Result{
		Requirements: analysis.Group{Items: []analysis.Item{{Text: "주말 근무 가능", ClarificationNeeded: true}}},
	}
	svc := &fakeService{outcomes: map[string]matching.Outcome{
		"seoul-1": {JobID: "seoul-1", State: matching.StateNeedsClarification, Result: pending, Questions: analysis.ExtractQuestions(pending)},
	}}

	orig := askYesNo
	askYesNo = func(string) (bool, error) { return false, errExit }
	t.Cleanup(func() { askYesNo = orig })

	err := analyzeJobs(context.Background(), svc, "", []string{"seoul-1"}, true, &bytes.Buffer{}, zap.NewNop())
	assert.ErrorIs(t, err, errExit)
	assert.Empty(t, svc.submitted)
}

func TestPrintOutcome(t *testing.T) {
	score := 48
	var out bytes.Buffer
	printOutcome(&out, matching.Outcome{
		JobID:            "seoul-7",
		State:            matching.StateScored,
		Score:            &score,
		UsedSampleResume: true,
		Result: &analysis.Result{
			Requirements: analysis.Group{Items: []analysis.Item{{Text: "경력 3년 이상", Matched: true}, {Text: "요양보호사 자격증"}}},
			AdviceItems:  []analysis.AdviceItem{{ItemText: "요양보호사 자격증", AdviceText: "국비 지원 과정을 알아보세요."}},
		},
	})

	text := out.String()
	assert.Contains(t, text, "적합도: 48점")
	assert.Contains(t, text, "✓ 경력 3년 이상")
	assert.Contains(t, text, "✗ 요양보호사 자격증")
	assert.Contains(t, text, "예시 이력서")
	assert.Contains(t, text, "국비 지원 과정을 알아보세요.")
}
