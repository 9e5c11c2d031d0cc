package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

func TestResolveRanksExactThenPrefixThenContains(t *testing.T) {
	uc := NewResolveTitlesUseCase(newFixtureProvider(t))

	matches, err := uc.Resolve(context.Background(), "  NARUTO ", domain.DomainAnime, 10)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if matches[0].Title != "Naruto" || matches[0].Kind != domain.MatchExact {
		t.Fatalf("expected exact match first, got %+v", matches[0])
	}
	if matches[1].Title != "Naruto Shippuden" || matches[1].Kind != domain.MatchPrefix {
		t.Fatalf("expected prefix match second, got %+v", matches[1])
	}
}

func TestResolveContainsMatchesRankAfterPrefix(t *testing.T) {
	uc := NewResolveTitlesUseCase(newFixtureProvider(t))

	matches, err := uc.Resolve(context.Background(), "uto", domain.DomainAnime, 10)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// All contain matches; popularity decides: Naruto 900, Shippuden 800, Boruto 300.
	want := []string{"Naruto", "Naruto Shippuden", "Boruto"}
	if len(matches) != len(want) {
		t.Fatalf("expected %v, got %+v", want, matches)
	}
	for i, title := range want {
		if matches[i].Title != title || matches[i].Kind != domain.MatchContains {
			t.Fatalf("position %d: expected %s contains, got %+v", i, title, matches[i])
		}
	}
}

func TestResolveTieBreaksByPopularityThenInsertionOrder(t *testing.T) {
	catalog := domain.NewCatalog([]domain.Item{item("Alpha Two", 5), item("Alpha One", 5), item("Alpha Max", 9)})
	index, _ := domain.NewSimilarityIndex(nil, nil, nil)
	uc := NewResolveTitlesUseCase(&artifactsFake{byDomain: map[domain.Domain]*domain.Artifacts{
		domain.DomainGame: {Domain: domain.DomainGame, Catalog: catalog, Similarity: index},
	}})

	matches, err := uc.Resolve(context.Background(), "alpha", domain.DomainGame, 10)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	got := []string{matches[0].Title, matches[1].Title, matches[2].Title}
	want := []string{"Alpha Max", "Alpha Two", "Alpha One"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestResolveTruncatesToLimit(t *testing.T) {
	uc := NewResolveTitlesUseCase(newFixtureProvider(t))

	matches, err := uc.Resolve(context.Background(), "o", domain.DomainAnime, 2)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestResolveEmptyQueryDoesNotTouchArtifacts(t *testing.T) {
	provider := newFixtureProvider(t)
	uc := NewResolveTitlesUseCase(provider)

	matches, err := uc.Resolve(context.Background(), "   ", domain.DomainAnime, 5)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("expected no artifact access for empty query")
	}
}

func TestResolveNoMatchIsNotAnError(t *testing.T) {
	uc := NewResolveTitlesUseCase(newFixtureProvider(t))

	matches, err := uc.Resolve(context.Background(), "Totally Unknown Title 123", domain.DomainAnime, 5)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", matches)
	}
}

func TestResolvePropagatesDomainUnavailable(t *testing.T) {
	missing := domain.WrapError(domain.ErrArtifactMissing, "load anime items", errors.New("no such file"))
	uc := NewResolveTitlesUseCase(&artifactsFake{err: missing})

	_, err := uc.Resolve(context.Background(), "naruto", domain.DomainAnime, 5)
	if !domain.IsDomainUnavailable(err) {
		t.Fatalf("expected domain unavailable error, got %v", err)
	}
}
