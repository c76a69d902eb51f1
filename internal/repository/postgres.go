package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/resume"
)

// PGRepo reads the jobs, resumes and resume_educations tables.
type PGRepo struct {
	DB *sql.DB
}

var (
	_ Jobs    = (*PGRepo)(nil)
	_ Resumes = (*PGRepo)(nil)
)

func (r *PGRepo) GetJobPosting(ctx context.Context, jobID string) (*jobs.SourceRecord, error) {
	var source, payload string
	err := r.DB.QueryRowContext(ctx,
		`SELECT source_type, payload FROM jobs WHERE id = $1`, jobID,
	).Scan(&source, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("select job %s: %w", jobID, err)
	}

	st, err := jobs.ParseSourceType(source)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w: %v", jobID, ErrMalformedJob, err)
	}

	fields, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w: %v", jobID, ErrMalformedJob, err)
	}

	return &jobs.SourceRecord{ID: jobID, Source: st, Fields: fields}, nil
}

func decodePayload(payload string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("payload is not an object")
	}
	return fields, nil
}

// GetResumeForUser returns the most recently updated resume of the user.
func (r *PGRepo) GetResumeForUser(ctx context.Context, userID string) (*resume.Record, error) {
	var (
		rec                       resume.Record
		experiences, certificates string
		computerSkills            string
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, name, experiences, certificates, computer_skills, skills, driving_license, owns_vehicle
		 FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`, userID,
	).Scan(&rec.ID, &rec.UserID, &rec.Name, &experiences, &certificates, &computerSkills, &rec.Skills, &rec.DrivingLicense, &rec.OwnsVehicle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select resume for user %s: %w", userID, err)
	}

	if err := decodeColumn(experiences, &rec.Experiences); err != nil {
		return nil, fmt.Errorf("resume %s experiences: %w", rec.ID, err)
	}
	if err := decodeColumn(certificates, &rec.Certificates); err != nil {
		return nil, fmt.Errorf("resume %s certificates: %w", rec.ID, err)
	}
	if err := decodeColumn(computerSkills, &rec.ComputerSkills); err != nil {
		return nil, fmt.Errorf("resume %s computer skills: %w", rec.ID, err)
	}

	educations, err := r.educations(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Educations = educations

	return &rec, nil
}

func (r *PGRepo) educations(ctx context.Context, resumeID string) ([]resume.Education, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT level, school, major, graduation_year FROM resume_educations
		 WHERE resume_id = $1 ORDER BY position`, resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("select educations for resume %s: %w", resumeID, err)
	}
	defer rows.Close()

	var out []resume.Education
	for rows.Next() {
		var (
			e     resume.Education
			level string
		)
		if err := rows.Scan(&level, &e.School, &e.Major, &e.GraduationYear); err != nil {
			return nil, fmt.Errorf("scan education for resume %s: %w", resumeID, err)
		}
		e.Level = resume.EducationLevel(level)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate educations for resume %s: %w", resumeID, err)
	}
	return out, nil
}

func decodeColumn(raw string, out any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}
