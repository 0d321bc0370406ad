// Package openai embeds text through any OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL string
	Model   string
	// APIKey may be empty for local services that skip authentication.
	APIKey string
}

type Embedder struct {
	embedder  embeddings.Embedder
	model     string
	executor  *resilience.Executor
	logger    *slog.Logger
	available atomic.Bool
}

var _ ports.Embedder = (*Embedder)(nil)

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "openai embedder", errors.New("embedding model is required"))
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(logger))
	}
	return &Embedder{
		embedder: embedder,
		model:    cfg.Model,
		executor: executor,
		logger:   logger.With("component", "openai-embedder", "model", cfg.Model),
	}, nil
}

func (e *Embedder) ModelName() string {
	return e.model
}

// Available sends a single probe embedding; success is remembered.
func (e *Embedder) Available(ctx context.Context) bool {
	if e.available.Load() {
		return true
	}
	if _, err := e.EmbedQuery(ctx, "ping"); err != nil {
		e.logger.Warn("embedding_model_unavailable", "error", err)
		return false
	}
	e.available.Store(true)
	return true
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := resilience.Do(ctx, e.executor, "openai_embed", func(ctx context.Context) ([][]float32, error) {
		return e.embedder.EmbedDocuments(ctx, texts)
	}, classify)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "openai embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// classify treats every upstream error as a recorded failure. The client
// library does not expose status codes, so only transport-level problems
// are assumed transient.
func classify(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	var netErr interface{ Timeout() bool }
	return resilience.ErrorClassification{
		Retryable:     errors.As(err, &netErr),
		RecordFailure: true,
	}
}
