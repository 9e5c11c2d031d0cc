package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
)

const defaultCoverRefreshTimeout = time.Minute

// CoverEnrichUseCase fills missing cover images from covers resolved earlier.
// Requests never wait on the resolver: titles without a known cover are
// queued for a background refresh and show up on later requests. It always
// works on a copy so resident artifact tables are never touched.
type CoverEnrichUseCase struct {
	resolver   ports.CoverArtResolver
	maxLookups int
	timeout    time.Duration
	logger     *slog.Logger

	mu      sync.RWMutex
	covers  map[string]string // "" records a title with no cover
	pending map[string]struct{}
	wg      sync.WaitGroup
}

func NewCoverEnrichUseCase(resolver ports.CoverArtResolver, maxLookups int, logger *slog.Logger) *CoverEnrichUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoverEnrichUseCase{
		resolver:   resolver,
		maxLookups: maxLookups,
		timeout:    defaultCoverRefreshTimeout,
		logger:     logger,
		covers:     make(map[string]string),
		pending:    make(map[string]struct{}),
	}
}

// Enrich returns items with the cover URLs already resolved and schedules a
// refresh for up to maxLookups titles that have none yet.
func (uc *CoverEnrichUseCase) Enrich(ctx context.Context, items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	if uc == nil || uc.resolver == nil {
		return out
	}

	var missing []string
	uc.mu.Lock()
	for i := range out {
		if out[i].ImageURL != "" {
			continue
		}
		title := out[i].Title
		if url, known := uc.covers[title]; known {
			out[i].ImageURL = url
			continue
		}
		if _, queued := uc.pending[title]; queued {
			continue
		}
		if uc.maxLookups > 0 && len(missing) >= uc.maxLookups {
			continue
		}
		uc.pending[title] = struct{}{}
		missing = append(missing, title)
	}
	uc.mu.Unlock()

	if len(missing) > 0 {
		uc.wg.Add(1)
		go uc.refresh(context.WithoutCancel(ctx), missing)
	}
	return out
}

// refresh resolves titles one by one. A temporary failure ends the batch and
// releases the remaining titles so a later request can queue them again.
func (uc *CoverEnrichUseCase) refresh(ctx context.Context, titles []string) {
	defer uc.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	for i, title := range titles {
		url, err := uc.resolver.ResolveCover(ctx, title)
		if err != nil {
			uc.logger.Warn("cover lookup failed", "title", title, "error", err)
			if domain.IsKind(err, domain.ErrTemporary) || ctx.Err() != nil {
				uc.release(titles[i:])
				return
			}
			uc.record(title, "")
			continue
		}
		uc.record(title, url)
	}
}

func (uc *CoverEnrichUseCase) record(title, url string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.covers[title] = url
	delete(uc.pending, title)
}

func (uc *CoverEnrichUseCase) release(titles []string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, title := range titles {
		delete(uc.pending, title)
	}
}

// Wait blocks until scheduled refreshes finish.
func (uc *CoverEnrichUseCase) Wait() {
	if uc != nil {
		uc.wg.Wait()
	}
}
