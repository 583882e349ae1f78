// Package app builds the service graph from configuration. It is shared by
// the HTTP server and the command line analyzer.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"lexsaksham-backend/cache"
	"lexsaksham-backend/config"
	"lexsaksham-backend/explain"
	"lexsaksham-backend/inference"
	"lexsaksham-backend/llm"
	"lexsaksham-backend/middleware"
	"lexsaksham-backend/models"
	"lexsaksham-backend/observability"
	"lexsaksham-backend/repository"
	"lexsaksham-backend/risk"
	"lexsaksham-backend/service"
	"lexsaksham-backend/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/option"
)

// App holds the wired services and the resources they depend on
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	DB        *pgxpool.Pool // nil without DATABASE_URL
	Analysis  *service.AnalysisService
	Judgments *service.JudgmentService
	Documents *service.DocumentService
	// Verifier is nil when authentication is disabled
	Verifier middleware.KeyVerifier

	closers []func()
}

// New connects to the configured backends and builds the services.
// Optional collaborators that are not configured are left out; the
// pipeline degrades around them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}
	built := false
	defer func() {
		if !built {
			a.Close()
		}
	}()

	var err error
	if cfg.Database.URL != "" {
		a.DB, err = initPostgres(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, a.DB.Close)
	} else {
		logger.Warn("DATABASE_URL not set; judgment search and document records disabled")
	}

	var geminiClient *genai.Client
	if cfg.Gemini.APIKey != "" {
		geminiClient, err = genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini: %w", err)
		}
		a.closers = append(a.closers, func() { _ = geminiClient.Close() })
		logger.Info("Gemini client initialized")
	} else {
		logger.Warn("GEMINI_API_KEY not set; translation and judgment embeddings disabled")
	}

	var kv cache.Cache
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cache.Options{
			Address:  cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if pingErr := rc.Ping(ctx); pingErr != nil {
			logger.Warn("redis unreachable, caching disabled", slog.Any("error", pingErr))
			_ = rc.Close()
		} else {
			kv = rc
			a.closers = append(a.closers, func() { _ = rc.Close() })
			logger.Info("Redis cache enabled", slog.String("addr", cfg.Redis.Addr))
		}
	}

	a.Analysis, err = a.buildAnalysis(ctx, geminiClient, kv)
	if err != nil {
		return nil, err
	}

	a.Judgments = a.buildJudgments(geminiClient)

	a.Documents, err = a.buildDocuments(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Enabled {
		verifiers := []middleware.KeyVerifier{middleware.NewStaticKeys(cfg.Auth.KeyHashes)}
		if a.DB != nil {
			verifiers = append(verifiers, repository.NewAPIKeyRepository(a.DB))
		}
		a.Verifier = middleware.AnyOf(verifiers...)
	}

	built = true
	return a, nil
}

func (a *App) buildAnalysis(ctx context.Context, geminiClient *genai.Client, kv cache.Cache) (*service.AnalysisService, error) {
	cfg := a.Config

	rules, err := risk.LoadRules(cfg.Analysis.RulesPath)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("Risk rules loaded",
		slog.String("path", cfg.Analysis.RulesPath),
		slog.Int("high_keywords", len(rules.Keywords(models.RiskHigh))),
		slog.Int("medium_keywords", len(rules.Keywords(models.RiskMedium))),
	)

	opts := []service.AnalysisServiceOption{
		service.AnalysisWithRules(rules),
		service.AnalysisWithMetrics(a.Metrics),
		service.AnalysisWithConcurrency(cfg.Analysis.Concurrency),
		service.AnalysisWithLogger(a.Logger),
	}

	var modelServer *inference.Client
	if cfg.ModelServer.URL != "" {
		modelServer = inference.NewClient(cfg.ModelServer.URL,
			inference.WithTemperature(cfg.ModelServer.Temperature),
			inference.WithHTTPClient(&http.Client{
				Timeout:   cfg.ModelServer.Timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}),
		)
		if pingErr := modelServer.Ping(ctx); pingErr != nil {
			a.Logger.Warn("model server not reachable yet", slog.Any("error", pingErr))
		}
		opts = append(opts,
			service.AnalysisWithClassifier(modelServer),
			service.AnalysisWithExplainer(explain.New(modelServer,
				explain.WithSamples(cfg.Analysis.ExplainSamples),
				explain.WithFeatures(cfg.Analysis.ExplainFeatures),
			)),
		)
	} else {
		a.Logger.Warn("MODEL_SERVER_URL not set; clause analysis unavailable")
	}

	if geminiClient != nil {
		var translator service.Translator = llm.NewGeminiTranslator(geminiClient, cfg.Gemini.TextModel)
		if kv != nil {
			translator = cache.NewTranslator(translator, kv, cfg.Redis.TTL)
		}
		opts = append(opts, service.AnalysisWithTranslator(translator))
	}

	var summarizer service.Summarizer
	switch cfg.Analysis.SummarizerBackend {
	case "modelserver":
		if modelServer != nil {
			summarizer = modelServer
		}
	case "gemini":
		if geminiClient != nil {
			summarizer = llm.NewGeminiSummarizer(geminiClient, cfg.Gemini.TextModel)
		}
	}
	if summarizer != nil {
		if kv != nil {
			summarizer = cache.NewSummarizer(summarizer, kv, cfg.Redis.TTL)
		}
		opts = append(opts, service.AnalysisWithSummarizer(summarizer))
	}

	if cfg.OpenRouter.APIKey != "" {
		refiner, err := llm.NewOpenRouterRefiner(llm.OpenRouterConfig{
			APIKey:  cfg.OpenRouter.APIKey,
			BaseURL: cfg.OpenRouter.BaseURL,
			Model:   cfg.OpenRouter.Model,
			Timeout: cfg.OpenRouter.Timeout,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.AnalysisWithRefiner(refiner))
	}

	switch cfg.Analysis.LogSink {
	case "file":
		sink, err := repository.NewFileAnalysisLog(cfg.Analysis.LogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.AnalysisWithLog(sink))
	case "postgres":
		if a.DB != nil {
			opts = append(opts, service.AnalysisWithLog(repository.NewAnalysisLogRepository(a.DB)))
		} else {
			a.Logger.Warn("ANALYSIS_LOG_SINK=postgres without DATABASE_URL; analysis log disabled")
		}
	}

	return service.NewAnalysisService(opts...), nil
}

func (a *App) buildJudgments(geminiClient *genai.Client) *service.JudgmentService {
	opts := []service.JudgmentServiceOption{
		service.JudgmentWithMetrics(a.Metrics),
		service.JudgmentWithLogger(a.Logger),
	}
	if geminiClient != nil {
		opts = append(opts, service.JudgmentWithEmbedder(llm.NewGeminiEmbedder(geminiClient, a.Config.Gemini.EmbeddingModel)))
	}
	if a.DB != nil {
		opts = append(opts, service.JudgmentWithIndex(repository.NewJudgmentRepository(a.DB)))
	}
	return service.NewJudgmentService(opts...)
}

func (a *App) buildDocuments(ctx context.Context) (*service.DocumentService, error) {
	sc := a.Config.Storage
	fileStorage, err := storage.New(ctx, storage.Config{
		Backend:      storage.Backend(sc.Backend),
		LocalPath:    sc.LocalPath,
		S3Bucket:     sc.S3Bucket,
		S3Region:     sc.S3Region,
		S3Prefix:     sc.S3Prefix,
		S3Endpoint:   sc.S3Endpoint,
		AWSAccessKey: sc.AWSAccessKey,
		AWSSecretKey: sc.AWSSecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Logger.Info("Storage initialized", slog.String("backend", sc.Backend))

	opts := []service.DocumentServiceOption{
		service.DocumentWithStorage(fileStorage),
		service.DocumentWithLogger(a.Logger),
	}
	if a.DB != nil {
		opts = append(opts, service.DocumentWithStore(repository.NewDocumentRepository(a.DB)))
	}
	return service.NewDocumentService(opts...), nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func initPostgres(ctx context.Context, connString string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Enable pgvector extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn("failed to create pgvector extension; it may already exist or need superuser privileges", slog.Any("error", err))
	}

	logger.Info("Postgres connection established with pgvector support")
	return pool, nil
}
