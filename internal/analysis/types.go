package analysis

import (
	"encoding/json"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
)

// GroupType names one of the two item groups of a result.
type GroupType string

const (
	GroupRequirement GroupType = "requirement"
	GroupPreference  GroupType = "preference"
)

// Item is a single extracted requirement or preference.
// A pending item (ClarificationNeeded) always carries Matched=false until answered.
type Item struct {
	Text                string `json:"text"`
	Matched             bool   `json:"matched"`
	ClarificationNeeded bool   `json:"clarificationNeeded"`
}

// Decided reports whether the item carries a definite verdict.
func (i Item) Decided() bool { return !i.ClarificationNeeded }

// Group is an ordered list of items. Counts are always derived from Items.
type Group struct {
	Items []Item
}

func (g Group) Total() int { return len(g.Items) }

func (g Group) Matched() int {
	n := 0
	for _, it := range g.Items {
		if it.Matched {
			n++
		}
	}
	return n
}

func (g Group) Pending() int {
	n := 0
	for _, it := range g.Items {
		if it.ClarificationNeeded {
			n++
		}
	}
	return n
}

type groupJSON struct {
	Total   int    `json:"total"`
	Matched int    `json:"matched"`
	Items   []Item `json:"items"`
}

// MarshalJSON writes the derived counts next to the items.
func (g Group) MarshalJSON() ([]byte, error) {
	items := g.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(groupJSON{Total: g.Total(), Matched: g.Matched(), Items: items})
}

// UnmarshalJSON reads only the items; stored counts are ignored.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Items = raw.Items
	return nil
}

func (g Group) clone() Group {
	if g.Items == nil {
		return Group{}
	}
	items := make([]Item, len(g.Items))
	copy(items, g.Items)
	return Group{Items: items}
}

// AdviceItem is remediation advice for one unmet item.
type AdviceItem struct {
	ItemText        string `json:"itemText"`
	AdviceText      string `json:"adviceText"`
	HasExternalLink bool   `json:"hasExternalLink"`
}

// ErrorCode classifies a failed analysis.
type ErrorCode string

const (
	CodeNotFound            ErrorCode = "not_found"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeInvalidResponse     ErrorCode = "invalid_response"
	CodeCooldown            ErrorCode = "cooldown"
)

// ErrorState marks a result as failed. Message is shown to the user.
type ErrorState struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Result is the analysis of one job posting against one resume.
type Result struct {
	JobID        string          `json:"jobId"`
	SourceType   jobs.SourceType `json:"sourceType"`
	Requirements Group           `json:"requirements"`
	Preferences  Group           `json:"preferences"`
	AdviceItems  []AdviceItem    `json:"adviceItems,omitempty"`
	Error        *ErrorState     `json:"errorState,omitempty"`
	// SampleResume is set when the built-in sample resume stood in for the user's.
	SampleResume bool `json:"sampleResume,omitempty"`
}

// Failed reports whether the result carries an error state.
func (r *Result) Failed() bool { return r != nil && r.Error != nil }

// Group returns the group of the given type.
func (r *Result) Group(t GroupType) *Group {
	switch t {
	case GroupRequirement:
		return &r.Requirements
	case GroupPreference:
		return &r.Preferences
	default:
		return nil
	}
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Requirements = r.Requirements.clone()
	out.Preferences = r.Preferences.clone()
	if r.AdviceItems != nil {
		out.AdviceItems = make([]AdviceItem, len(r.AdviceItems))
		copy(out.AdviceItems, r.AdviceItems)
	}
	if r.Error != nil {
		e := *r.Error
		out.Error = &e
	}
	return &out
}

// FailedResult builds the placeholder result returned when extraction cannot complete.
func FailedResult(jobID string, source jobs.SourceType, code ErrorCode, message string) *Result {
	return &Result{
		JobID:      jobID,
		SourceType: source,
		Error:      &ErrorState{Code: code, Message: message},
	}
}
