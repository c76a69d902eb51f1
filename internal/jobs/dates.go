package jobs

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// untilFilled marks postings that stay open until the position is filled.
const untilFilled = "채용시까지"

// OpenEnded is the deadline assigned to postings open until filled.
var OpenEnded = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

type dateRule struct {
	name    string
	pattern *regexp.Regexp
	parse   func(m []string) (time.Time, bool)
}

// dateRules are evaluated in order; the first matching rule wins.
var dateRules = []dateRule{
	{
		name:    "iso",
		pattern: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		parse:   func(m []string) (time.Time, bool) { return ymd(m[1], m[2], m[3]) },
	},
	{
		name:    "until-filled-with-date",
		pattern: regexp.MustCompile(`^` + untilFilled + `\s*\(?\s*(\d{2})-(\d{1,2})-(\d{1,2})\s*\)?$`),
		parse:   func(m []string) (time.Time, bool) { return ymd("20"+m[1], m[2], m[3]) },
	},
	{
		name:    "short",
		pattern: regexp.MustCompile(`^(\d{2})-(\d{1,2})-(\d{1,2})$`),
		parse:   func(m []string) (time.Time, bool) { return ymd("20"+m[1], m[2], m[3]) },
	},
	{
		name:    "compact",
		pattern: regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`),
		parse:   func(m []string) (time.Time, bool) { return ymd(m[1], m[2], m[3]) },
	},
	{
		name:    "until-filled",
		pattern: regexp.MustCompile(`^` + untilFilled + `$`),
		parse:   func([]string) (time.Time, bool) { return OpenEnded, true },
	},
}

// ParseDate parses the date formats used by the upstream APIs.
// Unparseable input yields nil.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, rule := range dateRules {
		m := rule.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		t, ok := rule.parse(m)
		if !ok {
			return nil
		}
		return &t
	}

	return nil
}

func ymd(y, m, d string) (time.Time, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (Feb 30 -> Mar 2); reject it.
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
