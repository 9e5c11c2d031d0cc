package ports

import (
	"context"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

// TitleResolver ranks catalog titles containing a free-text query.
type TitleResolver interface {
	Resolve(ctx context.Context, query string, d domain.Domain, limit int) ([]domain.TitleMatch, error)
}

// Recommender returns the nearest neighbors of an exact catalog title.
type Recommender interface {
	Recommend(ctx context.Context, title string, d domain.Domain, limit int) ([]domain.Item, error)
}

// SearchRecommender answers a free-text query with either similar items or
// literal search hits.
type SearchRecommender interface {
	SearchOrRecommend(ctx context.Context, query string, d domain.Domain, limit int) (domain.SearchOutcome, error)
}

// CatalogQueryService is the read model for popularity lists and plain search.
type CatalogQueryService interface {
	Popular(ctx context.Context, d domain.Domain) ([]domain.Item, error)
	SearchExact(ctx context.Context, query string, d domain.Domain, limit int) ([]domain.Item, error)
}

// DomainStatusReporter describes the load state of each domain.
type DomainStatusReporter interface {
	Status() map[domain.Domain]string
}
