package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
)

type RecommendUseCase struct {
	artifacts ports.ArtifactProvider
}

func NewRecommendUseCase(artifacts ports.ArtifactProvider) *RecommendUseCase {
	return &RecommendUseCase{artifacts: artifacts}
}

// Recommend returns up to limit items most similar to title. The title must be
// an exact row of the similarity index.
func (uc *RecommendUseCase) Recommend(
	ctx context.Context,
	title string,
	d domain.Domain,
	limit int,
) ([]domain.Item, error) {
	art, err := uc.artifacts.Get(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load %s artifacts: %w", d, err)
	}
	return similarItems(art, title, normalizeLimit(limit))
}

func similarItems(art *domain.Artifacts, title string, limit int) ([]domain.Item, error) {
	row, ok := art.Similarity.Row(title)
	if !ok {
		return nil, domain.WrapError(domain.ErrUnknownItem, "recommend", fmt.Errorf("title %q is not indexed for %s", title, art.Domain))
	}
	if len(row) > limit {
		row = row[:limit]
	}

	out := make([]domain.Item, 0, len(row))
	for _, neighbor := range row {
		if neighbor.Title == title {
			continue
		}
		// Artifacts are regenerated independently; titles the catalog no
		// longer has are skipped.
		item, ok := art.Catalog.Lookup(neighbor.Title)
		if !ok {
			continue
		}
		score := neighbor.Score
		item.Metadata.Similarity = &score
		out = append(out, item)
	}
	return out, nil
}
