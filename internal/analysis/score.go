package analysis

import (
	"math"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
)

const (
	requirementWeight = 70.0
	preferenceWeight  = 30.0
	work24ItemPoints  = 50
	maxScore          = 100
)

// Score computes the 0-100 match score. Results with pending items or an error
// state are rejected instead of producing an understated number.
func Score(r *Result) (int, error) {
	if r == nil || r.Failed() {
		return 0, ErrIncompleteResult
	}
	if HasPending(r) {
		return 0, ErrPendingClarification
	}

	if r.SourceType == jobs.SourceWork24 {
		return min(r.Requirements.Matched()*work24ItemPoints, maxScore), nil
	}

	req, pref := r.Requirements, r.Preferences
	if req.Total() == 0 && pref.Total() == 0 {
		return maxScore, nil
	}

	reqPart := requirementWeight
	if req.Total() > 0 {
		reqPart = float64(req.Matched()) / float64(req.Total()) * requirementWeight
	}
	prefPart := preferenceWeight
	if pref.Total() > 0 {
		prefPart = float64(pref.Matched()) / float64(pref.Total()) * preferenceWeight
	}

	return int(math.Round(reqPart + prefPart)), nil
}
