// Package matching orchestrates job analysis: it applies the cache and
// concurrency guard around extraction, runs the clarification round trip and
// scores finished results.
package matching

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/jobs"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/repository"
	"github.com/spigell/seoul-job-matcher/internal/resume"
	"github.com/spigell/seoul-job-matcher/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalysisTimeout = 2 * time.Minute
	defaultAdviceTimeout   = time.Minute
	cleanupTimeout         = 5 * time.Second
	defaultBatchLimit      = 4
)

// Extractor runs qualification extraction for one posting.
type Extractor interface {
	Extract(ctx context.Context, posting *jobs.Posting, resumeText string) (*analysis.Result, error)
}

// Advisor produces advice for unmet items. It never fails.
type Advisor interface {
	Generate(ctx context.Context, unmet []analysis.Item) []analysis.AdviceItem
}

// Config tunes the service. Zero values fall back to the defaults.
type Config struct {
	ResultTTL       time.Duration
	InFlightTTL     time.Duration
	Cooldown        time.Duration
	AnalysisTimeout time.Duration
	AdviceTimeout   time.Duration
	BatchLimit      int
}

func (c Config) withDefaults() Config {
	if c.ResultTTL <= 0 {
		c.ResultTTL = store.DefaultResultTTL
	}
	if c.InFlightTTL <= 0 {
		c.InFlightTTL = store.DefaultInFlightTTL
	}
	if c.Cooldown <= 0 {
		c.Cooldown = store.DefaultCooldown
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = defaultAnalysisTimeout
	}
	if c.AdviceTimeout <= 0 {
		c.AdviceTimeout = defaultAdviceTimeout
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = defaultBatchLimit
	}
	return c
}

// Service is the analysis entry point used by the HTTP server and the CLI.
// The cache is keyed by job id only, so the last analysed resume wins for a job.
type Service struct {
	jobs      repository.Jobs
	resumes   repository.Resumes
	store     store.Store
	extractor Extractor
	advisor   Advisor
	cfg       Config
	logger    *zap.Logger

	tasks *registry
	wg    sync.WaitGroup

	// base outlives individual requests; extractions and advice run under it.
	base context.Context
	stop context.CancelFunc
}

// NewService wires the service. advisor may be nil to disable advice.
func NewService(jobsRepo repository.Jobs, resumes repository.Resumes, st store.Store, extractor Extractor, advisor Advisor, cfg Config, log *zap.Logger) *Service {
	base, stop := context.WithCancel(context.Background())
	return &Service{
		jobs:      jobsRepo,
		resumes:   resumes,
		store:     st,
		extractor: extractor,
		advisor:   advisor,
		cfg:       cfg.withDefaults(),
		logger:    logger.OrNop(log),
		tasks:     newRegistry(),
		base:      base,
		stop:      stop,
	}
}

// RequestAnalysis returns the cached analysis of the job or starts one.
// The extraction runs detached from ctx: if ctx ends first the caller gets
// StateExtracting and the result still lands in the cache.
func (s *Service) RequestAnalysis(ctx context.Context, userID, jobID string) Outcome {
	log := s.logger.With(logger.JobFields(jobID, "")...).With(zap.String(logger.FieldUserID, userID))

	posting, outcome, ok := s.loadPosting(ctx, jobID, log)
	if !ok {
		return outcome
	}
	log = log.With(zap.String(logger.FieldSourceType, string(posting.Source)))

	cached, err := s.store.Get(ctx, jobID)
	switch {
	case err == nil:
		log.Debug("analysis cache hit")
		return outcomeFor(jobID, cached)
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("analysis cache read failed, treating as miss", zap.Error(err))
	}

	if inFlight, err := s.store.IsInFlight(ctx, jobID); err != nil {
		log.Warn("in-flight check failed", zap.Error(err))
	} else if inFlight {
		log.Debug("analysis already in flight")
		return stateOutcome(jobID, StateExtracting, msgExtracting)
	}

	if cooling, err := s.store.IsInCooldown(ctx, jobID); err != nil {
		log.Warn("cooldown check failed", zap.Error(err))
	} else if cooling {
		log.Debug("analysis in cooldown")
		return failedOutcome(jobID, analysis.FailedResult(jobID, posting.Source, analysis.CodeCooldown, msgCooldown))
	}

	return s.startExtraction(ctx, userID, posting, log)
}

// RetryAnalysis drops the cached result and the cooldown, then analyses again.
// A running extraction is still respected.
func (s *Service) RetryAnalysis(ctx context.Context, userID, jobID string) Outcome {
	log := s.logger.With(logger.JobFields(jobID, "")...).With(zap.String(logger.FieldUserID, userID))

	posting, outcome, ok := s.loadPosting(ctx, jobID, log)
	if !ok {
		return outcome
	}

	if err := s.store.Remove(ctx, jobID); err != nil {
		log.Warn("remove cached analysis failed", zap.Error(err))
	}
	if err := s.store.ClearFailed(ctx, jobID); err != nil {
		log.Warn("clear cooldown failed", zap.Error(err))
	}

	if inFlight, err := s.store.IsInFlight(ctx, jobID); err == nil && inFlight {
		return stateOutcome(jobID, StateExtracting, msgExtracting)
	}

	log.Info("retrying analysis")
	return s.startExtraction(ctx, userID, posting, log)
}

// SubmitAnswers applies clarification answers to the cached result and stores
// the updated copy. Once nothing is pending the result is scored.
func (s *Service) SubmitAnswers(ctx context.Context, userID, jobID string, answers []analysis.Answer) Outcome {
	log := s.logger.With(logger.JobFields(jobID, "")...).With(zap.String(logger.FieldUserID, userID))

	cached, err := s.store.Get(ctx, jobID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("analysis cache read failed", zap.Error(err))
			return failedOutcome(jobID, analysis.FailedResult(jobID, "", analysis.CodeProviderUnavailable, msgUnavailable))
		}
		if s.tasks.running(jobID) {
			return stateOutcome(jobID, StateExtracting, msgExtracting)
		}
		return stateOutcome(jobID, StateNotAnalyzed, msgNoAnalysis)
	}

	updated := analysis.ApplyAnswers(cached, answers)
	if err := s.store.Update(ctx, jobID, updated); err != nil {
		log.Warn("store answered analysis failed", zap.Error(err))
	}

	out := outcomeFor(jobID, updated)
	log.Info("clarification answers applied",
		zap.Int("answers", len(answers)),
		zap.String("state", string(out.State)),
	)
	if out.State == StateScored {
		s.startAdvice(jobID, updated)
	}
	return out
}

// Forget drops the cached analysis of a job, e.g. when it is un-favourited.
func (s *Service) Forget(ctx context.Context, jobID string) error {
	return s.store.Remove(ctx, jobID)
}

// Cancel stops a running extraction for the job. It reports whether one was running.
func (s *Service) Cancel(jobID string) bool {
	return s.tasks.cancel(jobID)
}

// AnalyzeMany requests analyses for several jobs concurrently.
func (s *Service) AnalyzeMany(ctx context.Context, userID string, jobIDs []string) map[string]Outcome {
	var (
		mu  sync.Mutex
		out = make(map[string]Outcome, len(jobIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchLimit)

	seen := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			o := s.RequestAnalysis(gctx, userID, id)
			mu.Lock()
			out[id] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Wait blocks until background extractions and advice generation finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close cancels background work and waits for it.
func (s *Service) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *Service) loadPosting(ctx context.Context, jobID string, log *zap.Logger) (*jobs.Posting, Outcome, bool) {
	raw, err := s.jobs.GetJobPosting(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) || errors.Is(err, repository.ErrMalformedJob) {
			log.Info("job posting unavailable", zap.Error(err))
			return nil, failedOutcome(jobID, analysis.FailedResult(jobID, "", analysis.CodeNotFound, msgNotFound)), false
		}
		log.Error("load job posting failed", zap.Error(err))
		return nil, failedOutcome(jobID, analysis.FailedResult(jobID, "", analysis.CodeProviderUnavailable, msgUnavailable)), false
	}

	posting, err := jobs.Normalize(*raw)
	if err != nil {
		log.Info("job posting malformed", zap.Error(err))
		return nil, failedOutcome(jobID, analysis.FailedResult(jobID, raw.Source, analysis.CodeNotFound, msgNotFound)), false
	}

	if !posting.Source.Analyzable() {
		return nil, stateOutcome(jobID, StateUnsupported, msgUnsupported), false
	}

	return posting, Outcome{}, true
}

// startExtraction claims the job and runs the extraction in a detached task.
func (s *Service) startExtraction(ctx context.Context, userID string, posting *jobs.Posting, log *zap.Logger) Outcome {
	jobID := posting.ID

	rec, err := s.resumes.GetResumeForUser(ctx, userID)
	if err != nil {
		log.Warn("load resume failed, using sample resume", zap.Error(err))
		rec = nil
	}
	profile := resume.Resolve(rec)

	claimed, err := s.store.ClaimInFlight(ctx, jobID, s.cfg.InFlightTTL)
	if err != nil {
		log.Error("claim analysis failed", zap.Error(err))
		return failedOutcome(jobID, analysis.FailedResult(jobID, posting.Source, analysis.CodeProviderUnavailable, msgUnavailable))
	}
	if !claimed {
		log.Debug("analysis claimed by another caller")
		return stateOutcome(jobID, StateExtracting, msgExtracting)
	}

	// Another caller may have finished between our cache read and the claim.
	cached, err := s.store.Get(ctx, jobID)
	switch {
	case err == nil:
		if err := s.store.ClearInFlight(ctx, jobID); err != nil {
			log.Warn("clear in-flight marker failed", zap.Error(err))
		}
		log.Debug("analysis stored while claiming, reusing it")
		return outcomeFor(jobID, cached)
	case !errors.Is(err, store.ErrNotFound):
		log.Warn("analysis cache read failed, treating as miss", zap.Error(err))
	}

	taskCtx, cancel := context.WithTimeout(s.base, s.cfg.AnalysisTimeout)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks.add(jobID, t)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.tasks.remove(jobID, t)
		defer cancel()

		t.outcome = s.extract(taskCtx, posting, profile, log)
		close(t.done)
	}()

	select {
	case <-t.done:
		return t.outcome
	case <-ctx.Done():
		log.Debug("caller stopped waiting, extraction continues in background")
		o := stateOutcome(jobID, StateExtracting, msgExtracting)
		o.UsedSampleResume = profile.Sample
		return o
	}
}

func (s *Service) extract(ctx context.Context, posting *jobs.Posting, profile resume.Profile, log *zap.Logger) Outcome {
	jobID := posting.ID
	cleanupCtx, cancelCleanup := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancelCleanup()

	defer func() {
		if err := s.store.ClearInFlight(cleanupCtx, jobID); err != nil {
			log.Warn("clear in-flight marker failed", zap.Error(err))
		}
	}()

	started := time.Now()
	result, err := s.extractor.Extract(ctx, posting, profile.Text)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Info("analysis cancelled")
			return stateOutcome(jobID, StateNotAnalyzed, msgCancelled)
		}

		failed := failureResult(posting, err)
		log.Warn("analysis failed",
			zap.String("code", string(failed.Error.Code)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		if err := s.store.MarkFailed(cleanupCtx, jobID, s.cfg.Cooldown); err != nil {
			log.Warn("mark cooldown failed", zap.Error(err))
		}
		return failedOutcome(jobID, failed)
	}

	result.SampleResume = profile.Sample
	if err := s.store.Put(cleanupCtx, jobID, result, s.cfg.ResultTTL); err != nil {
		log.Warn("store analysis failed", zap.Error(err))
	}
	if err := s.store.ClearFailed(cleanupCtx, jobID); err != nil {
		log.Warn("clear cooldown failed", zap.Error(err))
	}

	out := outcomeFor(jobID, result)
	log.Info("analysis completed",
		zap.String("state", string(out.State)),
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("sample_resume", profile.Sample),
	)
	if out.State == StateScored {
		s.startAdvice(jobID, result)
	}
	return out
}

func failureResult(posting *jobs.Posting, err error) *analysis.Result {
	var parseErr *analysis.ParseError
	if errors.As(err, &parseErr) {
		return analysis.FailedResult(posting.ID, posting.Source, analysis.CodeInvalidResponse, msgUnavailable)
	}
	return analysis.FailedResult(posting.ID, posting.Source, analysis.CodeProviderUnavailable, msgUnavailable)
}

// startAdvice generates advice in the background and merges it into the cached result.
func (s *Service) startAdvice(jobID string, r *analysis.Result) {
	if s.advisor == nil {
		return
	}
	unmet := analysis.UnmetItems(r)
	if len(unmet) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.base, s.cfg.AdviceTimeout)
		defer cancel()

		advice := s.advisor.Generate(ctx, unmet)
		if len(advice) == 0 {
			return
		}

		cur, err := s.store.Get(ctx, jobID)
		if err != nil || cur.Failed() {
			return
		}
		// The advice belongs to r's verdicts. A retry or answers may have replaced them.
		if !slices.Equal(cur.Requirements.Items, r.Requirements.Items) ||
			!slices.Equal(cur.Preferences.Items, r.Preferences.Items) {
			s.logger.Debug("analysis changed, dropping advice", logger.JobFields(jobID, "")...)
			return
		}
		cur.AdviceItems = advice
		if err := s.store.Update(ctx, jobID, cur); err != nil {
			s.logger.Warn("store advice failed", append(logger.JobFields(jobID, ""), zap.Error(err))...)
			return
		}
		s.logger.Debug("advice stored", append(logger.JobFields(jobID, ""), zap.Int("items", len(advice)))...)
	}()
}
