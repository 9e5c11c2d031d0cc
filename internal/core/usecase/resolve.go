package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
	"github.com/kirillkom/media-recommender/internal/core/textnorm"
)

type ResolveTitlesUseCase struct {
	artifacts ports.ArtifactProvider
}

func NewResolveTitlesUseCase(artifacts ports.ArtifactProvider) *ResolveTitlesUseCase {
	return &ResolveTitlesUseCase{artifacts: artifacts}
}

// Resolve returns catalog titles whose folded form contains the folded query,
// exact matches first, then prefix matches, then the rest.
func (uc *ResolveTitlesUseCase) Resolve(
	ctx context.Context,
	query string,
	d domain.Domain,
	limit int,
) ([]domain.TitleMatch, error) {
	key := textnorm.Fold(query)
	if key == "" {
		return []domain.TitleMatch{}, nil
	}

	art, err := uc.artifacts.Get(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load %s artifacts: %w", d, err)
	}
	return rankTitleMatches(art.Catalog, key, normalizeLimit(limit)), nil
}

type titleCandidate struct {
	match      domain.TitleMatch
	popularity int
	position   int
}

func rankTitleMatches(catalog *domain.Catalog, key string, limit int) []domain.TitleMatch {
	candidates := make([]titleCandidate, 0, 16)
	catalog.Range(func(position int, item domain.Item, titleKey string) bool {
		if !strings.Contains(titleKey, key) {
			return true
		}
		kind := domain.MatchContains
		switch {
		case titleKey == key:
			kind = domain.MatchExact
		case strings.HasPrefix(titleKey, key):
			kind = domain.MatchPrefix
		}
		candidates = append(candidates, titleCandidate{
			match:      domain.TitleMatch{Title: item.Title, Kind: kind},
			popularity: item.Metadata.Popularity,
			position:   position,
		})
		return true
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.match.Kind != b.match.Kind {
			return a.match.Kind < b.match.Kind
		}
		if a.popularity != b.popularity {
			return a.popularity > b.popularity
		}
		return a.position < b.position
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.TitleMatch, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.match)
	}
	return out
}
