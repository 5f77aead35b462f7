package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/ai/gemini"
	"github.com/spigell/talent-intake/internal/channel"
	"github.com/spigell/talent-intake/internal/conversation"
	"github.com/spigell/talent-intake/internal/dispatch"
	"github.com/spigell/talent-intake/internal/document"
	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/matching"
	"github.com/spigell/talent-intake/internal/secrets"
	"github.com/spigell/talent-intake/internal/session"
	"github.com/spigell/talent-intake/internal/tenant"
)

const (
	jobSourceFile     = "file"
	jobSourcePostgres = "postgres"
	jobSourceHTTP     = "http"

	defaultJobSource = "default"
	defaultJobsFile  = "jobs.yaml"
)

// application holds everything a command needs, plus what must be closed on exit.
type application struct {
	machine *conversation.Machine
	store   session.Store
	tenants *tenant.Registry
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openStore(ctx context.Context, config *Config) (session.Store, error) {
	return session.Open(ctx, session.Options{
		Backend:  config.Session.Backend,
		Path:     config.Session.Path,
		RedisURL: config.RedisURL,
	})
}

func buildApplication(ctx context.Context, config *Config, messenger channel.Messenger, logger *zap.Logger) (*application, error) {
	app := &application{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	store, err := openStore(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	app.store = store
	app.closers = append(app.closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing session store", zap.Error(err))
		}
	})

	var rdb *redis.Client
	if config.RedisURL != "" {
		rdb, err = session.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}
	extractor := ai.NewExtractor(generator, logger, config.AI.Gemini.MaxLogLength)

	sources, err := buildJobSources(ctx, config, logger, func(f func()) { app.closers = append(app.closers, f) })
	if err != nil {
		return nil, err
	}
	sourceNames := make([]string, 0, len(sources))
	for name := range sources {
		sourceNames = append(sourceNames, name)
	}
	sort.Strings(sourceNames)

	tenantList, validation := tenant.NormalizeAndValidate(config.Tenants, sourceNames)
	for _, w := range validation.Warnings {
		logger.Warn("tenant configuration", zap.String("warning", w))
	}
	if err := validation.Err(); err != nil {
		return nil, err
	}
	app.tenants = tenant.NewRegistry(tenantList)

	routes := make(map[string]string, len(tenantList))
	for _, t := range tenantList {
		routes[t.ID] = t.JobSource
	}
	var jobSource jobs.Source = jobs.NewMux(sources, routes, sourceNames[0])
	jobSource = jobs.NewCachedSource(jobSource, config.JobCache.TTL, rdb, logger)

	engineOpts := []matching.Option{
		matching.WithConcurrency(config.Matching.Concurrency),
		matching.WithJobTimeout(config.Matching.JobTimeout),
	}
	lexicon := matching.DefaultLexicon()
	matchers := map[string]conversation.Matcher{
		tenant.MatchingAI:     matching.NewEngine(matching.NewAIScorer(extractor), lexicon, logger, engineOpts...),
		tenant.MatchingRubric: matching.NewEngine(matching.RubricScorer{}, lexicon, logger, engineOpts...),
	}

	notifiers := map[string]dispatch.Notifier{
		dispatch.TransportLog: dispatch.NewLogNotifier(logger),
	}
	if rdb != nil {
		notifiers[dispatch.TransportRedis] = dispatch.NewRedisNotifier(rdb, logger)
	}
	webhookToken, err := secrets.Load(secrets.Source{
		Name:     "dispatch webhook token",
		Value:    config.Dispatch.WebhookToken,
		File:     config.Dispatch.WebhookTokenFile,
		Env:      envPrefix + "_DISPATCH_WEBHOOK_TOKEN",
		Optional: true,
	})
	if err != nil {
		return nil, err
	}
	notifiers[dispatch.TransportWebhook] = dispatch.NewWebhookNotifier(webhookToken)

	for _, t := range tenantList {
		if _, found := notifiers[t.Reviewer.Transport]; !found {
			return nil, fmt.Errorf("tenant %q uses %s dispatch, which needs redis-url", t.ID, t.Reviewer.Transport)
		}
	}

	docs := document.NewPipeline(
		&http.Client{},
		document.NewHostLimiter(config.Documents.RatePerHost, config.Documents.Burst),
		extractor,
		document.Config{
			MaxBytes:     config.Documents.MaxBytes,
			Timeout:      config.Documents.Timeout,
			AllowedTypes: config.Documents.AllowedTypes,
			TempDir:      config.Documents.TempDir,
		},
		logger,
	)

	machine, err := conversation.New(conversation.Deps{
		Store:      store,
		Messenger:  messenger,
		Extractor:  extractor,
		Documents:  docs,
		Jobs:       jobSource,
		Matchers:   matchers,
		Dispatcher: dispatch.NewManager(notifiers, logger),
		Tenants:    app.tenants,
		Logger:     logger,
	}, conversation.Config{
		ResetKeyword:      config.Conversation.ResetKeyword,
		Retention:         config.Session.Retention,
		TurnTimeout:       config.Conversation.TurnTimeout,
		ExtractionTimeout: config.Conversation.ExtractionTimeout,
		MaxDocumentBytes:  config.Documents.MaxBytes,
	})
	if err != nil {
		return nil, err
	}
	app.machine = machine

	ok = true
	return app, nil
}

func newGenerator(ctx context.Context, config *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:         apiKey,
		FastModel:      config.Gemini.FastModel,
		ReasoningModel: config.Gemini.ReasoningModel,
		MaxAttempts:    config.Gemini.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("ai generator ready",
		zap.String("provider", generator.Provider()),
		zap.String("fast_model", generator.Model(ai.ModelFast)),
		zap.String("reasoning_model", generator.Model(ai.ModelReasoning)),
	)
	return generator, nil
}

// buildJobSources opens every configured source. Without configuration a
// single file source named "default" reads jobs.yaml.
func buildJobSources(ctx context.Context, config *Config, logger *zap.Logger, onClose func(func())) (map[string]jobs.Source, error) {
	if len(config.JobSources) == 0 {
		return map[string]jobs.Source{defaultJobSource: &jobs.FileSource{Path: defaultJobsFile}}, nil
	}

	var pool *pgxpool.Pool
	sources := make(map[string]jobs.Source, len(config.JobSources))
	for name, src := range config.JobSources {
		switch strings.ToLower(src.Type) {
		case jobSourceFile:
			sources[name] = &jobs.FileSource{Path: src.Path}
		case jobSourcePostgres:
			if pool == nil {
				var err error
				pool, err = jobs.NewPostgresPool(ctx, config.DatabaseURL)
				if err != nil {
					return nil, fmt.Errorf("job source %q: %w", name, err)
				}
				onClose(pool.Close)
			}
			sources[name] = jobs.NewPostgresSource(pool)
		case jobSourceHTTP:
			token, err := secrets.Load(secrets.Source{
				Name: name + " feed token", Value: src.Token, File: src.TokenFile, Optional: true,
			})
			if err != nil {
				return nil, err
			}
			sources[name] = jobs.NewHTTPSource(src.URL, token, logger)
		default:
			return nil, fmt.Errorf("job source %q: unknown type %q", name, src.Type)
		}
	}
	return sources, nil
}
