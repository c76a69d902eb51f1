package resume

// EducationLevel orders the school levels a resume can list.
type EducationLevel string

const (
	LevelElementary EducationLevel = "elementary"
	LevelMiddle     EducationLevel = "middle"
	LevelHigh       EducationLevel = "high"
	LevelCollege    EducationLevel = "college"
	LevelUniversity EducationLevel = "university"
	LevelMaster     EducationLevel = "master"
	LevelDoctor     EducationLevel = "doctor"
)

var levelRank = map[EducationLevel]int{
	LevelElementary: 1,
	LevelMiddle:     2,
	LevelHigh:       3,
	LevelCollege:    4,
	LevelUniversity: 5,
	LevelMaster:     6,
	LevelDoctor:     7,
}

var levelLabel = map[EducationLevel]string{
	LevelElementary: "초등학교",
	LevelMiddle:     "중학교",
	LevelHigh:       "고등학교",
	LevelCollege:    "전문대학",
	LevelUniversity: "대학교",
	LevelMaster:     "대학원(석사)",
	LevelDoctor:     "대학원(박사)",
}

// Record is a stored resume as the resume builder persists it.
type Record struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Name           string         `json:"name"`
	Educations     []Education    `json:"educations,omitempty"`
	Experiences    []Experience   `json:"experiences,omitempty"`
	Certificates   []Certificate  `json:"certificates,omitempty"`
	ComputerSkills ComputerSkills `json:"computerSkills"`
	Skills         string         `json:"skills,omitempty"`
	DrivingLicense bool           `json:"drivingLicense"`
	OwnsVehicle    bool           `json:"ownsVehicle"`
}

type Education struct {
	Level          EducationLevel `json:"level"`
	School         string         `json:"school"`
	Major          string         `json:"major,omitempty"`
	GraduationYear int            `json:"graduationYear,omitempty"`
}

type Experience struct {
	Company          string `json:"company"`
	Title            string `json:"title,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	Responsibilities string `json:"responsibilities,omitempty"`
}

type Certificate struct {
	Name       string `json:"name"`
	Issuer     string `json:"issuer,omitempty"`
	AcquiredAt string `json:"acquiredAt,omitempty"`
}

// ComputerSkills are the checkbox-style skills of the resume builder.
type ComputerSkills struct {
	WordProcessor bool `json:"wordProcessor"`
	Spreadsheet   bool `json:"spreadsheet"`
	Presentation  bool `json:"presentation"`
	Internet      bool `json:"internet"`
	Email         bool `json:"email"`
	Smartphone    bool `json:"smartphone"`
}

// HighestEducation returns the highest-level education entry, or nil.
func (r *Record) HighestEducation() *Education {
	var best *Education
	for i := range r.Educations {
		e := &r.Educations[i]
		if levelRank[e.Level] == 0 {
			continue
		}
		if best == nil || levelRank[e.Level] > levelRank[best.Level] {
			best = e
		}
	}
	return best
}
