// Package artifacts loads the offline-built catalog, similarity and popularity
// files of each domain and keeps them resident.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/infrastructure/storage/localfs"
)

const (
	ItemsFile      = "items.json"
	SimilarityFile = "similarity.json"
	PopularFile    = "popular.json"

	defaultPopularLimit = 25
)

// Source opens artifact files by name. localfs.Storage satisfies it.
type Source interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Loader struct {
	sources      map[domain.Domain]Source
	popularLimit int
	now          func() time.Time
}

func NewLoader(sources map[domain.Domain]Source, popularLimit int) *Loader {
	if popularLimit <= 0 {
		popularLimit = defaultPopularLimit
	}
	copied := make(map[domain.Domain]Source, len(sources))
	for d, src := range sources {
		copied[d] = src
	}
	return &Loader{
		sources:      copied,
		popularLimit: popularLimit,
		now:          time.Now,
	}
}

// Load decodes the three artifacts of d. A missing file yields
// domain.ErrArtifactMissing; anything unreadable or inconsistent yields
// domain.ErrArtifactCorrupt.
func (l *Loader) Load(ctx context.Context, d domain.Domain) (*domain.Artifacts, error) {
	src, ok := l.sources[d]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactMissing, "load artifacts", fmt.Errorf("no artifact source for %s", d))
	}

	var rows []itemRow
	if err := decodeFile(ctx, src, ItemsFile, &rows); err != nil {
		return nil, err
	}
	catalog := domain.NewCatalog(buildItems(d, rows))

	var matrix similarityFile
	if err := decodeFile(ctx, src, SimilarityFile, &matrix); err != nil {
		return nil, err
	}
	index, err := domain.NewSimilarityIndex(canonicalTitles(matrix.Titles), matrix.Scores, catalog.Popularity)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifactCorrupt, "load "+SimilarityFile, err)
	}

	var popularTitles []string
	if err := decodeFile(ctx, src, PopularFile, &popularTitles); err != nil {
		return nil, err
	}

	return &domain.Artifacts{
		Domain:     d,
		Catalog:    catalog,
		Similarity: index,
		Popular:    domain.NewPopularityTable(popularItems(catalog, popularTitles, l.popularLimit)),
		LoadedAt:   l.now().UTC(),
	}, nil
}

type similarityFile struct {
	Titles []string    `json:"titles"`
	Scores [][]float64 `json:"scores"`
}

func decodeFile(ctx context.Context, src Source, name string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		if errors.Is(err, localfs.ErrNotFound) {
			return domain.WrapError(domain.ErrArtifactMissing, "load "+name, err)
		}
		return domain.WrapError(domain.ErrArtifactCorrupt, "load "+name, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrArtifactCorrupt, "decode "+name, err)
	}
	return nil
}

// popularItems keeps the stored order, drops titles the catalog lacks and
// stops at limit.
func popularItems(catalog *domain.Catalog, titles []string, limit int) []domain.Item {
	out := make([]domain.Item, 0, min(len(titles), limit))
	seen := make(map[string]struct{}, len(titles))
	for _, title := range canonicalTitles(titles) {
		if len(out) == limit {
			break
		}
		if _, dup := seen[title]; dup {
			continue
		}
		item, ok := catalog.Lookup(title)
		if !ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, item)
	}
	return out
}
