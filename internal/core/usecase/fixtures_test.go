package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

type artifactsFake struct {
	byDomain map[domain.Domain]*domain.Artifacts
	err      error
	calls    atomic.Int64
}

func (f *artifactsFake) Get(_ context.Context, d domain.Domain) (*domain.Artifacts, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	art, ok := f.byDomain[d]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactMissing, "get", errors.New("no artifacts"))
	}
	return art, nil
}

func item(title string, popularity int) domain.Item {
	return domain.Item{
		ID:       title,
		Title:    title,
		Type:     domain.DomainAnime,
		Rating:   8,
		Metadata: domain.Metadata{Popularity: popularity},
	}
}

// animeFixture has "Ghost" in the similarity index but not in the catalog and
// "Bleach" in the catalog but not in the similarity index.
func animeFixture(t *testing.T) *domain.Artifacts {
	t.Helper()

	catalog := domain.NewCatalog([]domain.Item{
		item("Naruto", 900),
		item("Naruto Shippuden", 800),
		item("Boruto", 300),
		item("One Piece", 700),
		item("One Punch Man", 950),
		item("Bleach", 600),
		item("Hunter x Hunter", 650),
	})

	titles := []string{"Naruto", "Naruto Shippuden", "Boruto", "One Piece", "One Punch Man", "Ghost", "Hunter x Hunter"}
	scores := [][]float64{
		{1, 0.9, 0.7, 0.2, 0.1, 0.8, 0.4},
		{0.9, 1, 0.6, 0.2, 0.1, 0.3, 0.4},
		{0.7, 0.6, 1, 0.1, 0.1, 0.1, 0.1},
		{0.2, 0.2, 0.1, 1, 0.3, 0.1, 0.5},
		{0.1, 0.1, 0.1, 0.3, 1, 0.1, 0.3},
		{0.8, 0.3, 0.1, 0.1, 0.1, 1, 0.1},
		{0.4, 0.4, 0.1, 0.5, 0.3, 0.1, 1},
	}
	index, err := domain.NewSimilarityIndex(titles, scores, catalog.Popularity)
	if err != nil {
		t.Fatalf("NewSimilarityIndex() error = %v", err)
	}

	popular := make([]domain.Item, 0, 3)
	for _, title := range []string{"One Punch Man", "Naruto", "Naruto Shippuden"} {
		it, _ := catalog.Lookup(title)
		popular = append(popular, it)
	}

	return &domain.Artifacts{
		Domain:     domain.DomainAnime,
		Catalog:    catalog,
		Similarity: index,
		Popular:    domain.NewPopularityTable(popular),
	}
}

func newFixtureProvider(t *testing.T) *artifactsFake {
	t.Helper()
	return &artifactsFake{byDomain: map[domain.Domain]*domain.Artifacts{
		domain.DomainAnime: animeFixture(t),
	}}
}

func titlesOf(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
