package ports

import (
	"context"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

// SearchService is the inbound contract for hybrid search and health.
type SearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchOutcome, error)
	Health() domain.HealthStatus
}

// IndexReloader rebuilds the search state from the corpus.
type IndexReloader interface {
	Reload(ctx context.Context) error
}
