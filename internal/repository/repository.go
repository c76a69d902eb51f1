// Package repository reads job postings and resumes owned by other systems.
package repository

import (
	"context"
	"errors"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/resume"
)

var (
	// ErrJobNotFound is returned when no posting exists for the id.
	ErrJobNotFound = errors.New("job posting not found")
	// ErrMalformedJob is returned when the stored posting cannot be decoded.
	ErrMalformedJob = errors.New("job posting is malformed")
)

// Jobs provides raw job postings.
type Jobs interface {
	GetJobPosting(ctx context.Context, jobID string) (*jobs.SourceRecord, error)
}

// Resumes provides the resume of a user. A user without a resume yields (nil, nil).
type Resumes interface {
	GetResumeForUser(ctx context.Context, userID string) (*resume.Record, error)
}
