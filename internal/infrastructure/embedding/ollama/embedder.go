package ollama

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/ports"
)

const probeText = "ping"

// Embedder resolves the first model from its list that answers an embed
// probe and uses it for every later call.
type Embedder struct {
	client *Client
	models []string

	mu     sync.Mutex
	active string
}

var _ ports.Embedder = (*Embedder)(nil)

func NewEmbedder(client *Client, models []string) *Embedder {
	cleaned := make([]string, 0, len(models))
	for _, m := range models {
		if m != "" {
			cleaned = append(cleaned, m)
		}
	}
	return &Embedder{client: client, models: cleaned}
}

// Available probes the configured models in order until one responds.
// A resolved model is remembered; an unsuccessful probe is retried on the
// next call.
func (e *Embedder) Available(ctx context.Context) bool {
	_, err := e.resolve(ctx)
	return err == nil
}

func (e *Embedder) ModelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Embedder) resolve(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != "" {
		return e.active, nil
	}
	if len(e.models) == 0 {
		return "", domain.WrapError(domain.ErrUnavailable, "resolve embedding model", fmt.Errorf("no models configured"))
	}

	var lastErr error
	for _, model := range e.models {
		e.client.logger.Info("embedding_model_probe", "model", model)
		if _, err := e.client.embed(ctx, model, []string{probeText}); err != nil {
			if isModelMissing(err) {
				e.client.logger.Warn("embedding_model_missing", "model", model)
			} else {
				e.client.logger.Warn("embedding_model_unavailable", "model", model, "error", err)
			}
			lastErr = err
			continue
		}
		e.active = model
		e.client.logger.Info("embedding_model_selected", "model", model)
		return model, nil
	}
	return "", domain.WrapError(domain.ErrUnavailable, "resolve embedding model", lastErr)
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model, err := e.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return e.client.embed(ctx, model, texts)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
