package matching

import (
	"github.com/spigell/seoul-job-matcher/internal/analysis"
)

// State is the per-job analysis state seen by callers.
type State string

const (
	StateNotAnalyzed        State = "not_analyzed"
	StateExtracting         State = "extracting"
	StateNeedsClarification State = "needs_clarification"
	StateScored             State = "scored"
	StateFailed             State = "failed"
	StateUnsupported        State = "unsupported"
)

// User-facing messages.
const (
	msgExtracting  = "공고를 분석하고 있습니다. 잠시 후 다시 확인해 주세요."
	msgNotFound    = "공고를 찾을 수 없습니다."
	msgUnavailable = "분석 서비스를 일시적으로 사용할 수 없습니다. 잠시 후 다시 시도해 주세요."
	msgCooldown    = "최근 분석에 실패했습니다. 잠시 후 다시 시도해 주세요."
	msgUnsupported = "이 공고는 적합도 분석을 지원하지 않습니다."
	msgNoAnalysis  = "분석 결과가 없습니다. 먼저 분석을 요청해 주세요."
	msgCancelled   = "분석이 취소되었습니다."
)

// Outcome is what a trigger returns: the current state of the job and, when
// available, the result, its score and the open questions.
type Outcome struct {
	JobID            string              `json:"jobId"`
	State            State               `json:"state"`
	Result           *analysis.Result    `json:"result,omitempty"`
	Score            *int                `json:"score,omitempty"`
	Questions        []analysis.Question `json:"questions,omitempty"`
	Message          string              `json:"message,omitempty"`
	UsedSampleResume bool                `json:"usedSampleResume"`
}

func stateOutcome(jobID string, state State, message string) Outcome {
	return Outcome{JobID: jobID, State: state, Message: message}
}

func failedOutcome(jobID string, r *analysis.Result) Outcome {
	o := Outcome{JobID: jobID, State: StateFailed, Result: r}
	if r != nil && r.Error != nil {
		o.Message = r.Error.Message
	}
	return o
}

// outcomeFor maps a result onto its terminal or waiting state.
func outcomeFor(jobID string, r *analysis.Result) Outcome {
	if r == nil {
		return stateOutcome(jobID, StateNotAnalyzed, msgNoAnalysis)
	}
	if r.Failed() {
		return failedOutcome(jobID, r)
	}

	o := Outcome{JobID: jobID, Result: r, UsedSampleResume: r.SampleResume}
	if analysis.HasPending(r) {
		o.State = StateNeedsClarification
		o.Questions = analysis.ExtractQuestions(r)
		return o
	}

	score, err := analysis.Score(r)
	if err != nil {
		o.State = StateFailed
		o.Message = msgUnavailable
		return o
	}
	o.State = StateScored
	o.Score = &score
	return o
}
