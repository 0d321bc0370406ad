package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/hybrid-search/internal/config"
	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/core/usecase"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus/csvsource"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus/sqlsource"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/corpus/xlsxsource"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/embedding/openai"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/index/flat"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/index/tfidf"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/indexstore/badger"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/indexstore/localfs"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/resilience"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/textclean"
	"github.com/kirillkom/hybrid-search/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Search  *usecase.SearchService
	Metrics *metrics.HTTPServerMetrics
	// Reloads is nil when NATS_URL is not set.
	Reloads ports.ReloadNotifier

	closeFns []func()
}

// New wires the search service from configuration. It does not load the
// corpus; callers run Search.Initialize when they are ready to serve.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	dedup, ok := usecase.ParseDedupKey(cfg.DedupKey)
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "bootstrap", fmt.Errorf("unknown DEDUP_KEY %q", cfg.DedupKey))
	}

	source, err := app.openCorpusSource(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init corpus source: %w", err)
	}
	store, err := app.openIndexStore(cfg, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init index store: %w", err)
	}

	executor := resilience.NewExecutor(
		resilience.ForEmbedding(cfg.EmbedRetryMaxAttempts, cfg.EmbedRetryBackoff, cfg.EmbedBreakerEnabled),
		resilience.WithLogger(logger),
		resilience.WithStateListener(func(operation string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_changed", "operation", operation, "from", from.String(), "to", to.String())
		}),
	)
	embedder, err := newEmbedder(cfg, executor, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	app.Metrics = metrics.NewHTTPServerMetrics(service)
	observer := metrics.NewSearchMetrics(service, app.Metrics.Registerer())

	app.Search = usecase.NewSearchService(usecase.SearchDeps{
		Source:      source,
		Cleaner:     textclean.New(),
		Store:       store,
		SparseIndex: tfidf.NewBuilder(tfidf.DefaultConfig()),
		DenseIndex:  flat.NewBuilder(),
		Embedder:    embedder,
		Observer:    observer,
		Logger:      logger,
	}, usecase.SearchServiceConfig{
		DefaultTopK:      cfg.DefaultTopK,
		MaxTopK:          cfg.MaxTopK,
		Dedup:            dedup,
		RetrievalTimeout: cfg.RetrievalTimeout,
		BuildTimeout:     cfg.IndexBuildTimeout,
		EmbedBatchSize:   cfg.EmbedBatchSize,
		EmbedConcurrency: cfg.EmbedConcurrency,
	})

	if strings.TrimSpace(cfg.NATSURL) != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSReloadSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
			ClientName:         "hybrid-search-" + service,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init reload queue: %w", err)
		}
		app.Reloads = queue
		app.closeFns = append(app.closeFns, queue.Close)
	}

	return app, nil
}

func (a *App) openCorpusSource(ctx context.Context, cfg config.Config) (ports.CorpusSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CorpusSource)) {
	case "csv":
		return csvsource.New(cfg.CorpusPath), nil
	case "xlsx", "excel":
		return xlsxsource.New(cfg.CorpusPath, cfg.CorpusSheet), nil
	case "postgres":
		return a.openSQLSource(ctx, sqlsource.DriverPostgres, cfg.CorpusDSN, cfg.CorpusTable)
	case "sqlite":
		dsn := cfg.CorpusDSN
		if dsn == "" {
			dsn = cfg.CorpusPath
		}
		return a.openSQLSource(ctx, sqlsource.DriverSQLite, dsn, cfg.CorpusTable)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "corpus source", fmt.Errorf("unsupported CORPUS_SOURCE %q", cfg.CorpusSource))
	}
}

func (a *App) openSQLSource(ctx context.Context, driver, dsn, table string) (ports.CorpusSource, error) {
	db, err := sqlsource.OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	a.closeFns = append(a.closeFns, func() { _ = db.Close() })
	return sqlsource.New(db, table)
}

func (a *App) openIndexStore(cfg config.Config, logger *slog.Logger) (ports.IndexStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.IndexStoreBackend)) {
	case "localfs", "":
		return localfs.New(cfg.IndexDir)
	case "badger":
		store, err := badger.Open(cfg.IndexDir, logger)
		if err != nil {
			return nil, err
		}
		a.closeFns = append(a.closeFns, func() { _ = store.Close() })
		return store, nil
	case "memory":
		store, err := badger.Open("", logger)
		if err != nil {
			return nil, err
		}
		a.closeFns = append(a.closeFns, func() { _ = store.Close() })
		return store, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "index store", fmt.Errorf("unsupported INDEX_STORE_BACKEND %q", cfg.IndexStoreBackend))
	}
}

// newEmbedder returns a nil interface when semantic search is disabled.
func newEmbedder(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.EmbedProvider)) {
	case "ollama":
		client := ollama.NewClient(cfg.OllamaURL, executor, logger)
		return ollama.NewEmbedder(client, cfg.OllamaEmbedModels), nil
	case "openai":
		return openai.New(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIEmbedModel,
			APIKey:  cfg.OpenAIAPIKey,
		}, executor, logger)
	case "none", "":
		logger.Info("semantic_search_disabled", "reason", "EMBED_PROVIDER=none")
		return nil, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "embedder", fmt.Errorf("unsupported EMBED_PROVIDER %q", cfg.EmbedProvider))
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
