package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spigell/seoul-job-matcher/internal/ai"
	"github.com/spigell/seoul-job-matcher/internal/ai/gemini"
	"github.com/spigell/seoul-job-matcher/internal/ai/openai"
	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/matching"
	"github.com/spigell/seoul-job-matcher/internal/repository"
	"github.com/spigell/seoul-job-matcher/internal/secrets"
	"github.com/spigell/seoul-job-matcher/internal/storage/db"
	"github.com/spigell/seoul-job-matcher/internal/store"

	"go.uber.org/zap"
)

const defaultSQLitePath = "seoul-job-matcher.db"

// deps holds everything built from the config. close releases it in reverse order.
type deps struct {
	service *matching.Service
	closers []func() error
}

func (d *deps) close(log *zap.Logger) {
	if d.service != nil {
		d.service.Close()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn("closing dependency", zap.Error(err))
		}
	}
}

func buildDeps(ctx context.Context, config *Config, migrate bool, log *zap.Logger) (*deps, error) {
	d := &deps{}

	database, dialect, err := openDatabase(ctx, config, log)
	if err != nil {
		return nil, err
	}
	if database != nil {
		d.closers = append(d.closers, database.Close)
		if migrate {
			if err := db.RunMigrations(ctx, database, dialect); err != nil {
				d.close(log)
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			log.Info("migrations applied", zap.String("dialect", string(dialect)))
		}
	}

	jobsRepo, resumesRepo, err := newRepositories(config, database)
	if err != nil {
		d.close(log)
		return nil, err
	}

	cache, err := newStore(ctx, config, database)
	if err != nil {
		d.close(log)
		return nil, err
	}
	d.closers = append(d.closers, cache.Close)
	log.Info("analysis cache ready", zap.String("backend", config.Cache.Backend))

	provider, err := newProvider(ctx, &config.AI, log)
	if err != nil {
		d.close(log)
		return nil, fmt.Errorf("building ai provider: %w", err)
	}

	providerLogger := logger.WithCommonFields(log, provider.Name(), provider.Model())
	extractor := analysis.NewExtractor(provider, config.AI.Temperature, config.AI.Gemini.MaxLogLength, providerLogger)

	var advisor matching.Advisor
	if config.Advice.Enabled {
		advisor = analysis.NewAdvisor(provider, config.AI.Temperature, providerLogger)
	}

	d.service = matching.NewService(jobsRepo, resumesRepo, cache, extractor, advisor, matching.Config{
		ResultTTL:       config.Cache.TTL,
		InFlightTTL:     config.Cache.InFlightTTL,
		Cooldown:        config.Cache.Cooldown,
		AnalysisTimeout: config.Analysis.Timeout,
		AdviceTimeout:   config.Advice.Timeout,
	}, log)

	return d, nil
}

// openDatabase connects to database.url. The sql cache backend falls back to a
// local sqlite file when no url is configured. It returns a nil db when none is needed.
func openDatabase(ctx context.Context, config *Config, log *zap.Logger) (*sql.DB, db.Dialect, error) {
	url := strings.TrimSpace(config.Database.URL)
	if url == "" && config.Cache.Backend == "sql" {
		path := strings.TrimSpace(config.Cache.SQLitePath)
		if path == "" {
			path = defaultSQLitePath
		}
		url = "sqlite://" + path
	}
	if url == "" {
		return nil, "", nil
	}

	opts := db.DefaultServerOptions()
	if config.Database.MaxOpenConns > 0 {
		opts.MaxOpenConns = config.Database.MaxOpenConns
	}

	database, dialect, err := db.Connect(ctx, url, opts)
	if err != nil {
		return nil, "", fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connected", zap.String("dialect", string(dialect)))

	return database, dialect, nil
}

// newRepositories prefers JSON data files when configured, then the database.
func newRepositories(config *Config, database *sql.DB) (repository.Jobs, repository.Resumes, error) {
	if config.Data.JobsFile != "" || config.Data.ResumesFile != "" || database == nil {
		repo, err := repository.LoadFiles(config.Data.JobsFile, config.Data.ResumesFile)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}

	repo := &repository.PGRepo{DB: database}
	return repo, repo, nil
}

func newStore(ctx context.Context, config *Config, database *sql.DB) (store.Store, error) {
	switch config.Cache.Backend {
	case "redis":
		r, err := store.OpenRedis(ctx, config.Cache.RedisURL, config.Cache.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return r, nil
	case "sql":
		if database == nil {
			return nil, fmt.Errorf("sql cache backend requires a database")
		}
		return store.NewSQL(database, nil), nil
	default:
		return store.NewMemory(nil), nil
	}
}

func newProvider(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Provider, error) {
	var (
		provider ai.Provider
		err      error
	)

	switch strings.TrimSpace(strings.ToLower(cfg.Provider)) {
	case "", gemini.ProviderName:
		provider, err = newGemini(ctx, cfg, log)
	case openai.ProviderName:
		provider, err = newOpenAI(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return ai.NewRateLimited(provider, cfg.RequestsPerMinute), nil
}

func newGemini(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Provider, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, gemini.ProviderName, cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:       apiKey,
		Model:        cfg.Gemini.Model,
		MaxRetries:   cfg.Gemini.MaxRetries,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, genLogger)
}

func newOpenAI(cfg *AIConfig, log *zap.Logger) (ai.Provider, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "openai api key",
		File: cfg.OpenAI.APIKeyFile,
		Env:  "OPENAI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
	}

	return openai.NewClient(openai.Config{
		APIKey:  apiKey,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, logger.WithCommonFields(log, openai.ProviderName, cfg.OpenAI.Model))
}
