package resume

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record *Record
		want   string
	}{
		{
			name:   "nil record",
			record: nil,
			want:   "",
		},
		{
			name:   "name only",
			record: &Record{Name: " 김영희 "},
			want:   "이름: 김영희",
		},
		{
			name: "full record in fixed order",
			record: &Record{
				Name: "김영희",
				Educations: []Education{
					{Level: LevelHigh, School: "서울여자고등학교", GraduationYear: 1980},
					{Level: LevelUniversity, School: "한국대학교", Major: "경영학", GraduationYear: 1984},
				},
				Experiences: []Experience{
					{Company: "한빛상사", Title: "경리", StartDate: "1984-03", EndDate: "1999-02", Responsibilities: "회계 장부 관리"},
					{Company: "  "},
					{Company: "동네마트", StartDate: "2001-01"},
				},
				Certificates: []Certificate{
					{Name: "전산회계 2급", Issuer: "한국세무사회", AcquiredAt: "1990-06"},
					{Name: "요양보호사"},
				},
				ComputerSkills: ComputerSkills{WordProcessor: true, Spreadsheet: true},
				Skills:         "친절한 응대",
				DrivingLicense: true,
				OwnsVehicle:    true,
			},
			want: strings.Join([]string{
				"이름: 김영희",
				"최종 학력: 대학교 / 한국대학교 / 경영학 / 1984년 졸업",
				"경력:\n- 한빛상사 / 경리 (1984-03 ~ 1999-02): 회계 장부 관리\n- 동네마트 (2001-01 ~ 현재)",
				"자격증:\n- 전산회계 2급 (한국세무사회, 1990-06)\n- 요양보호사",
				"컴퓨터 활용 능력: 문서 작성, 스프레드시트",
				"보유 기술: 친절한 응대",
				"운전: 운전면허 보유, 자차 보유",
			}, "\n\n"),
		},
		{
			name: "unknown education level is ignored",
			record: &Record{
				Educations: []Education{{Level: "kindergarten", School: "햇님유치원"}},
			},
			want: "",
		},
		{
			name:   "vehicle without license",
			record: &Record{OwnsVehicle: true},
			want:   "운전: 자차 보유",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Format(tt.record); got != tt.want {
				t.Fatalf("Format() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestHighestEducation(t *testing.T) {
	t.Parallel()

	r := &Record{Educations: []Education{
		{Level: LevelMaster, School: "A"},
		{Level: LevelCollege, School: "B"},
		{Level: LevelDoctor, School: "C"},
		{Level: LevelMiddle, School: "D"},
	}}

	got := r.HighestEducation()
	if got == nil || got.School != "C" {
		t.Fatalf("HighestEducation() = %+v, want school C", got)
	}

	if (&Record{}).HighestEducation() != nil {
		t.Fatalf("expected nil for empty educations")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	sample := Resolve(nil)
	if !sample.Sample {
		t.Fatalf("expected sample flag for missing resume")
	}
	if sample.Text != Format(Sample()) {
		t.Fatalf("unexpected sample text: %q", sample.Text)
	}
	if !strings.HasPrefix(sample.Text, "이름: 홍길동") {
		t.Fatalf("sample text should start with the sample name, got %q", sample.Text)
	}

	own := Resolve(&Record{Name: "박철수"})
	if own.Sample {
		t.Fatalf("real resume reported as sample")
	}
	if own.Text != "이름: 박철수" {
		t.Fatalf("unexpected text: %q", own.Text)
	}
}
