package jobs

import (
	"fmt"
	"strings"
)

// Normalize maps a source-specific record onto the canonical Posting.
func Normalize(raw SourceRecord) (*Posting, error) {
	if raw.Fields == nil {
		raw.Fields = map[string]any{}
	}

	switch raw.Source {
	case SourceSeoul:
		return normalizeSeoul(raw)
	case SourceWork24:
		return normalizeWork24(raw)
	case SourceGovernment:
		return normalizeGovernment(raw)
	default:
		return nil, fmt.Errorf("normalize job %s: unknown source type %q", raw.ID, raw.Source)
	}
}

func normalizeSeoul(raw SourceRecord) (*Posting, error) {
	var rec SeoulRecord
	if err := decodeFields(raw.Fields, &rec); err != nil {
		return nil, fmt.Errorf("normalize seoul job %s: %w", raw.ID, err)
	}

	description := clean(rec.Duty)
	if guide := clean(rec.Guide); guide != "" {
		description = joinNonEmpty("\n", description, guide)
	}

	return &Posting{
		ID:                firstNonEmpty(raw.ID, rec.ID),
		Source:            SourceSeoul,
		Title:             clean(rec.Title),
		Company:           clean(rec.Company),
		Description:       description,
		CareerRequired:    clean(rec.Career),
		EducationRequired: clean(rec.Education),
		Preferred:         clean(rec.Preferences),
		Deadline:          ParseDate(rec.Closing),
	}, nil
}

func normalizeWork24(raw SourceRecord) (*Posting, error) {
	var rec Work24Record
	if err := decodeFields(raw.Fields, &rec); err != nil {
		return nil, fmt.Errorf("normalize work24 job %s: %w", raw.ID, err)
	}

	education := clean(rec.MinEducation)
	if max := clean(rec.MaxEducation); max != "" && max != education {
		education = joinNonEmpty(" ~ ", education, max)
	}

	return &Posting{
		ID:                firstNonEmpty(raw.ID, rec.ID),
		Source:            SourceWork24,
		Title:             clean(rec.Title),
		Company:           clean(rec.Company),
		CareerRequired:    clean(rec.Career),
		EducationRequired: education,
		Deadline:          ParseDate(rec.CloseDate),
	}, nil
}

func normalizeGovernment(raw SourceRecord) (*Posting, error) {
	var rec GovernmentRecord
	if err := decodeFields(raw.Fields, &rec); err != nil {
		return nil, fmt.Errorf("normalize government job %s: %w", raw.ID, err)
	}

	return &Posting{
		ID:                firstNonEmpty(raw.ID, rec.ID),
		Source:            SourceGovernment,
		Title:             clean(rec.Title),
		Company:           clean(rec.Institution),
		Description:       clean(rec.Qualifying),
		CareerRequired:    clean(rec.Career),
		EducationRequired: clean(rec.Education),
		Preferred:         clean(rec.Preferences),
		Deadline:          ParseDate(rec.EndDate),
	}, nil
}

// clean collapses the CRLF and non-breaking spaces the upstream APIs emit.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
