package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/resume"
)

// FileRepo serves postings and resumes from JSON files, for the CLI and local runs.
// The jobs file holds an array of {id, sourceType, fields}; the resumes file an
// array of resume records keyed by userId.
type FileRepo struct {
	mu      sync.RWMutex
	jobs    map[string]jobs.SourceRecord
	resumes map[string]resume.Record
}

var (
	_ Jobs    = (*FileRepo)(nil)
	_ Resumes = (*FileRepo)(nil)
)

// LoadFiles reads the given files. An empty path leaves that collection empty.
func LoadFiles(jobsPath, resumesPath string) (*FileRepo, error) {
	repo := &FileRepo{
		jobs:    make(map[string]jobs.SourceRecord),
		resumes: make(map[string]resume.Record),
	}

	if strings.TrimSpace(jobsPath) != "" {
		var records []jobs.SourceRecord
		if err := readJSON(jobsPath, &records); err != nil {
			return nil, fmt.Errorf("load jobs: %w", err)
		}
		for _, rec := range records {
			repo.AddJob(rec)
		}
	}

	if strings.TrimSpace(resumesPath) != "" {
		var records []resume.Record
		if err := readJSON(resumesPath, &records); err != nil {
			return nil, fmt.Errorf("load resumes: %w", err)
		}
		for _, rec := range records {
			repo.AddResume(rec)
		}
	}

	return repo, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (r *FileRepo) AddJob(rec jobs.SourceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[rec.ID] = rec
}

func (r *FileRepo) AddResume(rec resume.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes[rec.UserID] = rec
}

func (r *FileRepo) GetJobPosting(_ context.Context, jobID string) (*jobs.SourceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	if _, err := jobs.ParseSourceType(string(rec.Source)); err != nil {
		return nil, fmt.Errorf("job %s: %w: %v", jobID, ErrMalformedJob, err)
	}
	return &rec, nil
}

func (r *FileRepo) GetResumeForUser(_ context.Context, userID string) (*resume.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.resumes[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
