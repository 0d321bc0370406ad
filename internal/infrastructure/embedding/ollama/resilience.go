package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/infrastructure/resilience"
)

// StatusError is a non-2xx answer from the Ollama API.
type StatusError struct {
	Model      string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("ollama embed %s: %s", e.Model, e.Status)
	}
	return fmt.Sprintf("ollama embed %s: %s: %s", e.Model, e.Status, body)
}

// ModelMissing reports that the server does not have the model pulled.
func (e *StatusError) ModelMissing() bool {
	return e.StatusCode == http.StatusNotFound ||
		(e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Body), "not found"))
}

func isModelMissing(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.ModelMissing()
}

// classifyEmbedError keeps a missing model out of the breaker's counts: the
// fallback list probes models that may legitimately be absent.
func classifyEmbedError(err error) resilience.ErrorClassification {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isModelMissing(err):
		return resilience.ErrorClassification{}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retryable := retryableStatus(statusErr.StatusCode)
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func asTemporary(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyEmbedError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
