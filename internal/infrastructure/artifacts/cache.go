package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
)

const (
	StatusNotLoaded   = "not_loaded"
	StatusReady       = "ready"
	StatusUnavailable = "unavailable"
)

// LoadObserver receives the outcome of each loader invocation.
type LoadObserver interface {
	ObserveArtifactLoad(domain string, status string, duration time.Duration)
}

type loadResult struct {
	artifacts *domain.Artifacts
	err       error
}

// Cache keeps loaded artifacts resident for the life of the process. The first
// Get per domain runs the loader once, no matter how many callers arrive
// concurrently; missing or corrupt artifacts are remembered and never retried.
type Cache struct {
	loader   ports.ArtifactLoader
	observer LoadObserver
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	done  map[domain.Domain]loadResult
	loads atomic.Int64
}

type CacheOption func(*Cache)

func WithLoadObserver(o LoadObserver) CacheOption {
	return func(c *Cache) {
		c.observer = o
	}
}

func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCache(loader ports.ArtifactLoader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader: loader,
		logger: slog.Default(),
		done:   make(map[domain.Domain]loadResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, d domain.Domain) (*domain.Artifacts, error) {
	if res, ok := c.lookup(d); ok {
		return res.artifacts, res.err
	}

	ch := c.group.DoChan(string(d), func() (any, error) {
		if res, ok := c.lookup(d); ok {
			return res.artifacts, res.err
		}
		return c.load(d)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Artifacts), nil
	}
}

func (c *Cache) lookup(d domain.Domain) (loadResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.done[d]
	return res, ok
}

// load runs detached from any single caller so one cancelled request does not
// fail the load for everyone waiting on it.
func (c *Cache) load(d domain.Domain) (*domain.Artifacts, error) {
	c.loads.Add(1)
	started := time.Now()

	art, err := c.loader.Load(context.Background(), d)
	elapsed := time.Since(started)

	status := StatusReady
	switch {
	case err == nil:
		c.store(d, loadResult{artifacts: art})
		c.logger.Info("artifacts loaded",
			"domain", d,
			"items", art.Catalog.Len(),
			"indexed", art.Similarity.Len(),
			"popular", art.Popular.Len(),
			"duration_ms", elapsed.Milliseconds(),
		)
	case domain.IsDomainUnavailable(err):
		status = StatusUnavailable
		c.store(d, loadResult{err: err})
		c.logger.Error("artifacts unavailable", "domain", d, "error", err, "duration_ms", elapsed.Milliseconds())
	default:
		status = "error"
		err = fmt.Errorf("load %s artifacts: %w", d, err)
		c.logger.Warn("artifact load failed", "domain", d, "error", err, "duration_ms", elapsed.Milliseconds())
	}
	if c.observer != nil {
		c.observer.ObserveArtifactLoad(string(d), status, elapsed)
	}
	return art, err
}

func (c *Cache) store(d domain.Domain, res loadResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done[d] = res
}

// Loads reports how many times the loader has been invoked.
func (c *Cache) Loads() int64 {
	return c.loads.Load()
}

// Warm loads the given domains concurrently. Failures are logged and reported
// in the joined error; a failed domain stays unavailable while the others
// serve normally.
func (c *Cache) Warm(ctx context.Context, domains ...domain.Domain) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range domains {
		g.Go(func() error {
			if _, err := c.Get(gctx, d); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", d, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Status reports the load state of every known domain.
func (c *Cache) Status() map[domain.Domain]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[domain.Domain]string, len(domain.Domains()))
	for _, d := range domain.Domains() {
		res, ok := c.done[d]
		switch {
		case !ok:
			out[d] = StatusNotLoaded
		case res.err != nil:
			out[d] = StatusUnavailable
		default:
			out[d] = StatusReady
		}
	}
	return out
}
