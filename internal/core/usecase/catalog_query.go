package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
)

type CatalogQueryUseCase struct {
	artifacts ports.ArtifactProvider
	resolver  ports.TitleResolver
}

func NewCatalogQueryUseCase(artifacts ports.ArtifactProvider, resolver ports.TitleResolver) *CatalogQueryUseCase {
	return &CatalogQueryUseCase{
		artifacts: artifacts,
		resolver:  resolver,
	}
}

// Popular returns the domain's popularity table in stored order.
func (uc *CatalogQueryUseCase) Popular(ctx context.Context, d domain.Domain) ([]domain.Item, error) {
	art, err := uc.artifacts.Get(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load %s artifacts: %w", d, err)
	}
	return art.Popular.Items(), nil
}

// SearchExact maps title resolution hits to catalog items without any
// similarity expansion.
func (uc *CatalogQueryUseCase) SearchExact(
	ctx context.Context,
	query string,
	d domain.Domain,
	limit int,
) ([]domain.Item, error) {
	matches, err := uc.resolver.Resolve(ctx, query, d, limit)
	if err != nil {
		return nil, fmt.Errorf("resolve titles: %w", err)
	}
	if len(matches) == 0 {
		return []domain.Item{}, nil
	}

	art, err := uc.artifacts.Get(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load %s artifacts: %w", d, err)
	}
	return itemsForMatches(art.Catalog, matches), nil
}
