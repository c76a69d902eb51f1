package jobs

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies the upstream open-data API a posting came from.
type SourceType string

const (
	SourceSeoul      SourceType = "seoul"
	SourceWork24     SourceType = "work24"
	SourceGovernment SourceType = "government"
)

// ParseSourceType validates a raw source tag.
func ParseSourceType(raw string) (SourceType, error) {
	switch s := SourceType(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceSeoul, SourceWork24, SourceGovernment:
		return s, nil
	default:
		return "", fmt.Errorf("unknown source type %q", raw)
	}
}

// Analyzable reports whether postings of this source go through qualification analysis.
// Government postings are excluded.
func (s SourceType) Analyzable() bool {
	return s == SourceSeoul || s == SourceWork24
}

// Posting is the canonical job posting shared by every source.
type Posting struct {
	ID                string     `json:"id"`
	Source            SourceType `json:"sourceType"`
	Title             string     `json:"title,omitempty"`
	Company           string     `json:"company,omitempty"`
	Description       string     `json:"description,omitempty"`
	CareerRequired    string     `json:"careerRequired,omitempty"`
	EducationRequired string     `json:"educationRequired,omitempty"`
	Preferred         string     `json:"preferred,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
}

// ExtractionText renders the part of the posting that is sent for qualification extraction.
// Seoul postings contribute their full description, Work24 postings only carry
// career and education requirements.
func (p *Posting) ExtractionText() string {
	var b strings.Builder
	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	switch p.Source {
	case SourceWork24:
		line("경력 조건", p.CareerRequired)
		line("학력 조건", p.EducationRequired)
	default:
		line("공고 제목", p.Title)
		line("공고 내용", p.Description)
		line("경력 조건", p.CareerRequired)
		line("학력 조건", p.EducationRequired)
		line("우대 사항", p.Preferred)
	}

	return strings.TrimSpace(b.String())
}
