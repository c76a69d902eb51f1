package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUnmetItems(t *testing.T) {
	t.Parallel()

	r := &Result{
		SourceType: jobs.SourceSeoul,
		Requirements: Group{Items: []Item{
			{Text: "경력 3년 이상", Matched: true},
			{Text: "지게차운전기능사"},
			{Text: "야간 근무 가능", ClarificationNeeded: true},
		}},
		Preferences: Group{Items: []Item{
			{Text: "컴퓨터 활용 우대"},
		}},
	}

	got := UnmetItems(r)
	require.Len(t, got, 2)
	assert.Equal(t, "지게차운전기능사", got[0].Text)
	assert.Equal(t, "컴퓨터 활용 우대", got[1].Text)

	assert.Nil(t, UnmetItems(FailedResult("1", jobs.SourceSeoul, CodeNotFound, "x")))
}

func TestAdvisorEmptyInputSkipsProvider(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	a := NewAdvisor(provider, 0.3, nil)

	got := a.Generate(context.Background(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, provider.callCount())
}

func TestAdvisorSingleBatchCall(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: []string{"```json\n" + `{"advice":[
		{"itemText":"지게차운전기능사","adviceText":" 내일배움카드로 교육을 받으세요. ","hasExternalLink":true},
		{"itemText":"컴퓨터 활용 우대","adviceText":"주민센터 컴퓨터 교실을 이용해 보세요."},
		{"itemText":"","adviceText":"빈 항목"}
	]}` + "\n```"}}
	a := NewAdvisor(provider, 0.3, nil)

	got := a.Generate(context.Background(), []Item{{Text: "지게차운전기능사"}, {Text: "컴퓨터 활용 우대"}})

	require.Equal(t, 1, provider.callCount())
	call := provider.calls[0]
	assert.Equal(t, advicePrompt, call.system)
	assert.Contains(t, call.user, "- 지게차운전기능사\n- 컴퓨터 활용 우대")
	assert.True(t, call.opts.JSON)

	assert.Equal(t, []AdviceItem{
		{ItemText: "지게차운전기능사", AdviceText: "내일배움카드로 교육을 받으세요.", HasExternalLink: true},
		{ItemText: "컴퓨터 활용 우대", AdviceText: "주민센터 컴퓨터 교실을 이용해 보세요."},
	}, got)
}

func TestAdvisorSwallowsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider *fakeProvider
		message  string
	}{
		{name: "provider error", provider: &fakeProvider{err: errors.New("timeout")}, message: "advice generation failed"},
		{name: "not json", provider: &fakeProvider{responses: []string{"sorry"}}, message: "advice response rejected"},
		{name: "wrong shape", provider: &fakeProvider{responses: []string{`{"tips":[]}`}}, message: "advice response rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			a := NewAdvisor(tt.provider, 0, zap.New(core))

			got := a.Generate(context.Background(), []Item{{Text: "자격증"}})
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())
		})
	}
}
