package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/media-recommender/internal/config"
	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/infrastructure/artifacts"
	"github.com/kirillkom/media-recommender/internal/infrastructure/queue/noop"
)

func writeAnimeArtifacts(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "anime")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		artifacts.ItemsFile: `[
			{"id": 1, "title": "Naruto", "rating": 7.9, "popularity": 900},
			{"id": 2, "title": "Naruto Shippuden", "rating": 8.2, "popularity": 800},
			{"id": 3, "title": "Bleach", "rating": 7.8, "popularity": 600}
		]`,
		artifacts.SimilarityFile: `{
			"titles": ["Naruto", "Naruto Shippuden", "Bleach"],
			"scores": [[1, 0.9, 0.4], [0.9, 1, 0.3], [0.4, 0.3, 1]]
		}`,
		artifacts.PopularFile: `["Naruto", "Naruto Shippuden"]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestNewWarmsDomainsAndKeepsServingHealthyOnes(t *testing.T) {
	root := t.TempDir()
	writeAnimeArtifacts(t, root)

	cfg := config.Config{
		ArtifactsDir: root,
		PopularLimit: 10,
		WarmOnStart:  true,
		DefaultLimit: 12,
		MaxLimit:     50,
	}
	app, err := New(context.Background(), cfg, "test", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	status := app.Artifacts.Status()
	if status[domain.DomainAnime] != artifacts.StatusReady || status[domain.DomainGame] != artifacts.StatusUnavailable {
		t.Fatalf("unexpected domain status: %v", status)
	}
	if _, ok := app.Publisher.(noop.Publisher); !ok {
		t.Fatalf("expected noop publisher when interactions are disabled, got %T", app.Publisher)
	}
	if app.Covers != nil {
		t.Fatalf("cover art should be disabled by default")
	}

	outcome, err := app.Search.SearchOrRecommend(context.Background(), "Naruto", domain.DomainAnime, 5)
	if err != nil {
		t.Fatalf("SearchOrRecommend() error = %v", err)
	}
	if outcome.Kind != domain.OutcomeRecommended || len(outcome.Items) == 0 || outcome.Items[0].Title != "Naruto Shippuden" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if _, err := app.Catalog.Popular(context.Background(), domain.DomainGame); !domain.IsDomainUnavailable(err) {
		t.Fatalf("expected game domain unavailable, got %v", err)
	}
}

func TestNewWiresCoverArtFromCachePath(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, "covers", "anime_image_cache.json")
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cachePath, []byte(`{"Naruto": "https://cdn.example/naruto.jpg"}`), 0o644); err != nil {
		t.Fatalf("write cover cache: %v", err)
	}

	cfg := config.Config{
		ArtifactsDir:     root,
		CoverArtEnabled:  true,
		JikanURL:         "http://127.0.0.1:1",
		JikanRPS:         1,
		CoverCachePath:   cachePath,
		CoverEnrichLimit: 1,
	}
	app, err := New(context.Background(), cfg, "test", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	app.Covers.Enrich(context.Background(), []domain.Item{{Title: "Naruto"}})
	app.Covers.Wait()
	items := app.Covers.Enrich(context.Background(), []domain.Item{{Title: "Naruto"}})
	if items[0].ImageURL != "https://cdn.example/naruto.jpg" {
		t.Fatalf("expected cached cover, got %q", items[0].ImageURL)
	}
}

func TestResilienceConfigMapsSettings(t *testing.T) {
	got := resilienceConfig(config.Config{
		ResilienceRetryMaxAttempts:        4,
		ResilienceBreakerMinRequests:      -1,
		ResilienceBreakerHalfOpenMaxCalls: 2,
	})
	if got.RetryMaxAttempts != 4 || got.BreakerMinRequests != 0 || got.BreakerHalfOpenMaxCalls != 2 {
		t.Fatalf("unexpected resilience config: %+v", got)
	}
}
