package resume

// Sample returns the resume used when the current user has not written one yet.
func Sample() *Record {
	return &Record{
		ID:   "sample",
		Name: "홍길동",
		Educations: []Education{
			{Level: LevelHigh, School: "서울고등학교", GraduationYear: 1978},
		},
		Experiences: []Experience{
			{
				Company:          "대한물산",
				Title:            "총무과장",
				StartDate:        "1985-03",
				EndDate:          "2015-12",
				Responsibilities: "사무실 시설 관리, 비품 구매, 직원 근태 관리",
			},
		},
		Certificates: []Certificate{
			{Name: "지게차운전기능사", Issuer: "한국산업인력공단", AcquiredAt: "2016-05"},
		},
		ComputerSkills: ComputerSkills{WordProcessor: true, Internet: true, Smartphone: true},
		Skills:         "성실함, 꼼꼼한 일처리",
		DrivingLicense: true,
	}
}
