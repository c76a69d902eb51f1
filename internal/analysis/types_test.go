package analysis

import (
	"encoding/json"
	"testing"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupJSONCountsAreDerived(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Group{Items: items(true, false, true)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3,"matched":2,"items":[
		{"text":"item","matched":true,"clarificationNeeded":false},
		{"text":"item","matched":false,"clarificationNeeded":false},
		{"text":"item","matched":true,"clarificationNeeded":false}
	]}`, string(data))

	empty, err := json.Marshal(Group{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"matched":0,"items":[]}`, string(empty))

	var g Group
	require.NoError(t, json.Unmarshal([]byte(`{"total":5,"matched":5,"items":[{"text":"a","matched":false}]}`), &g))
	assert.Equal(t, 1, g.Total())
	assert.Equal(t, 0, g.Matched())
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	r := &Result{
		JobID:        "1",
		SourceType:   jobs.SourceSeoul,
		Requirements: Group{Items: items(true)},
		AdviceItems:  []AdviceItem{{ItemText: "a", AdviceText: "b"}},
		Error:        &ErrorState{Code: CodeCooldown, Message: "m"},
	}

	c := r.Clone()
	c.Requirements.Items[0].Matched = false
	c.AdviceItems[0].AdviceText = "changed"
	c.Error.Message = "changed"

	assert.True(t, r.Requirements.Items[0].Matched)
	assert.Equal(t, "b", r.AdviceItems[0].AdviceText)
	assert.Equal(t, "m", r.Error.Message)
	assert.Nil(t, (*Result)(nil).Clone())
}
