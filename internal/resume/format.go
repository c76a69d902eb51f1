package resume

import (
	"strconv"
	"strings"
)

// Profile is the resume text handed to the LLM together with its provenance.
type Profile struct {
	Text   string
	Sample bool
}

// Resolve formats r, falling back to the built-in sample resume when r is nil.
func Resolve(r *Record) Profile {
	if r == nil {
		return Profile{Text: Format(Sample()), Sample: true}
	}
	return Profile{Text: Format(r)}
}

// Format flattens a resume into prompt-ready text. Sections appear in a fixed
// order and empty fields are left out.
func Format(r *Record) string {
	if r == nil {
		return ""
	}

	var sections []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}

	if name := strings.TrimSpace(r.Name); name != "" {
		add("이름: " + name)
	}
	add(formatEducation(r.HighestEducation()))
	add(formatExperiences(r.Experiences))
	add(formatCertificates(r.Certificates))
	if skills := r.ComputerSkills.labels(); len(skills) > 0 {
		add("컴퓨터 활용 능력: " + strings.Join(skills, ", "))
	}
	if skills := strings.TrimSpace(r.Skills); skills != "" {
		add("보유 기술: " + skills)
	}
	add(formatVehicle(r.DrivingLicense, r.OwnsVehicle))

	return strings.Join(sections, "\n\n")
}

func formatEducation(e *Education) string {
	if e == nil {
		return ""
	}

	parts := []string{levelLabel[e.Level]}
	if school := strings.TrimSpace(e.School); school != "" {
		parts = append(parts, school)
	}
	if major := strings.TrimSpace(e.Major); major != "" {
		parts = append(parts, major)
	}
	if e.GraduationYear > 0 {
		parts = append(parts, strconv.Itoa(e.GraduationYear)+"년 졸업")
	}

	return "최종 학력: " + strings.Join(parts, " / ")
}

func formatExperiences(items []Experience) string {
	var lines []string
	for _, e := range items {
		company := strings.TrimSpace(e.Company)
		if company == "" {
			continue
		}

		line := "- " + company
		if title := strings.TrimSpace(e.Title); title != "" {
			line += " / " + title
		}
		if period := formatPeriod(e.StartDate, e.EndDate); period != "" {
			line += " (" + period + ")"
		}
		if duty := strings.TrimSpace(e.Responsibilities); duty != "" {
			line += ": " + duty
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return ""
	}
	return "경력:\n" + strings.Join(lines, "\n")
}

func formatPeriod(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " ~ 현재"
	case start == "":
		return "~ " + end
	default:
		return start + " ~ " + end
	}
}

func formatCertificates(items []Certificate) string {
	var lines []string
	for _, c := range items {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}

		details := make([]string, 0, 2)
		if issuer := strings.TrimSpace(c.Issuer); issuer != "" {
			details = append(details, issuer)
		}
		if at := strings.TrimSpace(c.AcquiredAt); at != "" {
			details = append(details, at)
		}

		line := "- " + name
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return ""
	}
	return "자격증:\n" + strings.Join(lines, "\n")
}

func (c ComputerSkills) labels() []string {
	var out []string
	for _, s := range []struct {
		on    bool
		label string
	}{
		{c.WordProcessor, "문서 작성"},
		{c.Spreadsheet, "스프레드시트"},
		{c.Presentation, "프레젠테이션"},
		{c.Internet, "인터넷 검색"},
		{c.Email, "이메일"},
		{c.Smartphone, "스마트폰 활용"},
	} {
		if s.on {
			out = append(out, s.label)
		}
	}
	return out
}

func formatVehicle(license, vehicle bool) string {
	var parts []string
	if license {
		parts = append(parts, "운전면허 보유")
	}
	if vehicle {
		parts = append(parts, "자차 보유")
	}
	if len(parts) == 0 {
		return ""
	}
	return "운전: " + strings.Join(parts, ", ")
}
