package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// Question asks the user to confirm one pending item.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	ItemText  string    `json:"itemText"`
	Group     GroupType `json:"groupType"`
	ItemIndex int       `json:"itemIndex"`
}

// Answer is the user's yes/no reply to a Question.
type Answer struct {
	Group     GroupType `json:"groupType"`
	ItemIndex int       `json:"itemIndex"`
	Value     bool      `json:"value"`
}

// Answer builds the reply to q.
func (q Question) Answer(value bool) Answer {
	return Answer{Group: q.Group, ItemIndex: q.ItemIndex, Value: value}
}

// QuestionID formats the stable id of the question for an item.
func QuestionID(group GroupType, index int) string {
	return fmt.Sprintf("%s-%d", group, index)
}

// ParseQuestionID is the inverse of QuestionID.
func ParseQuestionID(id string) (GroupType, int, error) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid question id %q", id)
	}

	group := GroupType(id[:idx])
	if group != GroupRequirement && group != GroupPreference {
		return "", 0, fmt.Errorf("invalid question group in %q", id)
	}

	n, err := strconv.Atoi(id[idx+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("invalid question index in %q", id)
	}
	return group, n, nil
}

// HasPending reports whether any item still needs clarification.
func HasPending(r *Result) bool {
	if r == nil {
		return false
	}
	return r.Requirements.Pending() > 0 || r.Preferences.Pending() > 0
}

// ExtractQuestions returns one question per pending item: requirements first,
// then preferences, each in item order.
func ExtractQuestions(r *Result) []Question {
	if r == nil || r.Failed() {
		return nil
	}

	var out []Question
	for _, group := range []GroupType{GroupRequirement, GroupPreference} {
		for i, it := range r.Group(group).Items {
			if !it.ClarificationNeeded {
				continue
			}
			out = append(out, Question{
				ID:        QuestionID(group, i),
				Text:      fmt.Sprintf("'%s' 조건에 해당하시나요?", it.Text),
				ItemText:  it.Text,
				Group:     group,
				ItemIndex: i,
			})
		}
	}
	return out
}

// ApplyAnswers returns a copy of r with the answered items decided.
// Answers pointing at unknown or already decided items are skipped. r is never modified.
func ApplyAnswers(r *Result, answers []Answer) *Result {
	out := r.Clone()
	if out == nil {
		return nil
	}

	for _, a := range answers {
		g := out.Group(a.Group)
		if g == nil || a.ItemIndex < 0 || a.ItemIndex >= len(g.Items) {
			continue
		}
		// Only pending items were asked about; decided verdicts stay as extracted.
		if !g.Items[a.ItemIndex].ClarificationNeeded {
			continue
		}
		g.Items[a.ItemIndex].Matched = a.Value
		g.Items[a.ItemIndex].ClarificationNeeded = false
	}

	return out
}
