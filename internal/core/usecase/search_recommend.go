package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
)

type SearchRecommendUseCase struct {
	artifacts   ports.ArtifactProvider
	resolver    ports.TitleResolver
	recommender ports.Recommender
}

func NewSearchRecommendUseCase(
	artifacts ports.ArtifactProvider,
	resolver ports.TitleResolver,
	recommender ports.Recommender,
) *SearchRecommendUseCase {
	return &SearchRecommendUseCase{
		artifacts:   artifacts,
		resolver:    resolver,
		recommender: recommender,
	}
}

// SearchOrRecommend treats a query naming a known title as a request for
// similar items and any other query as a title search. A named title missing
// from the similarity index degrades to the search hits.
func (uc *SearchRecommendUseCase) SearchOrRecommend(
	ctx context.Context,
	query string,
	d domain.Domain,
	limit int,
) (domain.SearchOutcome, error) {
	limit = normalizeLimit(limit)
	if strings.TrimSpace(query) == "" {
		return emptyOutcome(), nil
	}

	matches, err := uc.resolver.Resolve(ctx, query, d, limit)
	if err != nil {
		return domain.SearchOutcome{}, fmt.Errorf("resolve titles: %w", err)
	}
	if len(matches) == 0 {
		return emptyOutcome(), nil
	}

	kind := domain.OutcomeSearch
	if matches[0].Kind == domain.MatchExact {
		items, err := uc.recommender.Recommend(ctx, matches[0].Title, d, limit)
		switch {
		case err == nil:
			return domain.SearchOutcome{Kind: domain.OutcomeRecommended, Items: trimItems(items, limit)}, nil
		case domain.IsKind(err, domain.ErrUnknownItem):
			kind = domain.OutcomeFallback
		default:
			return domain.SearchOutcome{}, fmt.Errorf("recommend similar titles: %w", err)
		}
	}

	art, err := uc.artifacts.Get(ctx, d)
	if err != nil {
		return domain.SearchOutcome{}, fmt.Errorf("load %s artifacts: %w", d, err)
	}
	items := itemsForMatches(art.Catalog, matches)
	if len(items) == 0 {
		return emptyOutcome(), nil
	}
	return domain.SearchOutcome{Kind: kind, Items: trimItems(items, limit)}, nil
}

func emptyOutcome() domain.SearchOutcome {
	return domain.SearchOutcome{Kind: domain.OutcomeEmpty, Items: []domain.Item{}}
}

func itemsForMatches(catalog *domain.Catalog, matches []domain.TitleMatch) []domain.Item {
	out := make([]domain.Item, 0, len(matches))
	for _, m := range matches {
		if item, ok := catalog.Lookup(m.Title); ok {
			out = append(out, item)
		}
	}
	return out
}
