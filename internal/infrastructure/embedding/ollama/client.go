// Package ollama embeds text through an Ollama server's /api/embed endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-search/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

func NewClient(baseURL string, executor *resilience.Executor, logger *slog.Logger) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(logger))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
		logger:     logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *Client) embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	var response embedResponse
	err := c.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		return c.post(ctx, model, embedRequest{Model: model, Input: texts}, &response)
	}, classifyEmbedError)
	if err != nil {
		return nil, asTemporary("ollama embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (c *Client) post(ctx context.Context, model string, payload embedRequest, out *embedResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{
			Model:      model,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBody),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}
