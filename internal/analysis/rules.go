package analysis

import "strings"

var preferenceMarkers = []string{"우대", "선호", "가산점", "preferred", "preference", "a plus"}

var hardMarkers = []string{
	"학력", "졸업", "학사", "석사", "박사", "고졸", "대졸",
	"경력", "년 이상", "자격증", "면허",
	"license", "licence", "degree", "experience", "certificate", "certification",
}

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsPreferenceText reports whether an item phrase is worded as a preference.
func IsPreferenceText(text string) bool { return containsAny(text, preferenceMarkers) }

// IsHardQualification reports whether an item is an education, career or license
// condition, which can always be judged from the resume.
func IsHardQualification(text string) bool { return containsAny(text, hardMarkers) }

// ApplyRules enforces the classification contract on a freshly parsed result:
// preference-worded requirements move to preferences, hard qualifications are
// never pending, and pending items carry matched=false.
func ApplyRules(r *Result) {
	if r == nil {
		return
	}

	kept := r.Requirements.Items[:0:0]
	for _, it := range r.Requirements.Items {
		if IsPreferenceText(it.Text) {
			r.Preferences.Items = append(r.Preferences.Items, it)
			continue
		}
		kept = append(kept, it)
	}
	r.Requirements.Items = kept

	normalizeItems(r.Requirements.Items)
	normalizeItems(r.Preferences.Items)
}

func normalizeItems(items []Item) {
	for i := range items {
		items[i].Text = strings.TrimSpace(items[i].Text)
		if items[i].ClarificationNeeded && IsHardQualification(items[i].Text) {
			items[i].ClarificationNeeded = false
		}
		if items[i].ClarificationNeeded {
			items[i].Matched = false
		}
	}
}
