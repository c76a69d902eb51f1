package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/resume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &PGRepo{DB: db}, mock
}

func TestPGRepoGetJobPosting(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT source_type, payload FROM jobs").
		WithArgs("123").
		WillReturnRows(sqlmock.NewRows([]string{"source_type", "payload"}).
			AddRow("seoul", `{"JO_REQST_NO":"123","JO_SJ":"경비원 모집","RCEPT_CLOS_NM":"채용시까지"}`))

	rec, err := repo.GetJobPosting(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", rec.ID)
	assert.Equal(t, jobs.SourceSeoul, rec.Source)

	posting, err := jobs.Normalize(*rec)
	require.NoError(t, err)
	assert.Equal(t, "경비원 모집", posting.Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetJobPostingErrors(t *testing.T) {
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		target error
	}{
		{
			name: "not found",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT source_type, payload FROM jobs").WithArgs("1").WillReturnError(sql.ErrNoRows)
			},
			target: ErrJobNotFound,
		},
		{
			name: "unknown source",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT source_type, payload FROM jobs").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"source_type", "payload"}).AddRow("kakao", `{}`))
			},
			target: ErrMalformedJob,
		},
		{
			name: "payload not json",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT source_type, payload FROM jobs").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"source_type", "payload"}).AddRow("work24", `not json`))
			},
			target: ErrMalformedJob,
		},
		{
			name: "payload null",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT source_type, payload FROM jobs").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"source_type", "payload"}).AddRow("work24", `null`))
			},
			target: ErrMalformedJob,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.expect(mock)

			_, err := repo.GetJobPosting(context.Background(), "1")
			require.True(t, errors.Is(err, tt.target), "expected %v, got %v", tt.target, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGRepoGetResumeForUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, user_id, name, experiences, certificates, computer_skills, skills, driving_license, owns_vehicle").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "experiences", "certificates", "computer_skills", "skills", "driving_license", "owns_vehicle",
		}).AddRow(
			"resume-1", "user-1", "김영희",
			`[{"company":"한빛상사","title":"경리"}]`,
			`[{"name":"요양보호사"}]`,
			`{"wordProcessor":true}`,
			"친절한 응대", true, false,
		))
	mock.ExpectQuery("SELECT level, school, major, graduation_year FROM resume_educations").
		WithArgs("resume-1").
		WillReturnRows(sqlmock.NewRows([]string{"level", "school", "major", "graduation_year"}).
			AddRow("high", "서울여자고등학교", "", 1980).
			AddRow("university", "한국대학교", "경영학", 1984))

	rec, err := repo.GetResumeForUser(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "김영희", rec.Name)
	assert.Equal(t, []resume.Experience{{Company: "한빛상사", Title: "경리"}}, rec.Experiences)
	assert.Equal(t, []resume.Certificate{{Name: "요양보호사"}}, rec.Certificates)
	assert.True(t, rec.ComputerSkills.WordProcessor)
	assert.True(t, rec.DrivingLicense)
	require.Len(t, rec.Educations, 2)
	assert.Equal(t, resume.LevelUniversity, rec.HighestEducation().Level)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetResumeForUserWithoutResume(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, user_id, name").WithArgs("user-2").WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetResumeForUser(context.Background(), "user-2")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}
