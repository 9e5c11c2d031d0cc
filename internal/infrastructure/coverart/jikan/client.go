// Package jikan resolves anime cover art through the public Jikan API.
package jikan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/kirillkom/media-recommender/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL  = "https://api.jikan.moe"
	DefaultCacheKey = "anime_image_cache.json"

	lookupOperation = resilience.OpCoverLookup
)

// LookupObserver counts lookups by status: cached, hit, miss or error.
type LookupObserver interface {
	ObserveCoverLookup(status string)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// RequestsPerSecond throttles outbound searches. Jikan allows about three.
	RequestsPerSecond float64
	Executor          *resilience.Executor
	Cache             Blob
	CacheKey          string
	Observer          LookupObserver
	Logger            *slog.Logger
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	store      *coverStore
	observer   LookupObserver
	logger     *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 6 * time.Second}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 3
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	if opts.CacheKey == "" {
		opts.CacheKey = DefaultCacheKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	store, err := loadCoverStore(ctx, opts.Cache, opts.CacheKey)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("cover cache loaded", "entries", store.size())

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		executor:   opts.Executor,
		store:      store,
		observer:   opts.Observer,
		logger:     opts.Logger,
	}, nil
}

// ResolveCover returns the cover URL Jikan reports for title, or "" when it
// has none.
func (c *Client) ResolveCover(ctx context.Context, title string) (string, error) {
	key := strings.TrimSpace(title)
	if key == "" {
		return "", nil
	}
	if cached, known := c.store.get(key); known {
		c.observe("cached")
		return cached, nil
	}

	query := searchTitle(key)
	if query == "" {
		query = key
	}
	cover, err := resilience.Do(ctx, c.executor, lookupOperation, func(ctx context.Context) (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		return c.search(ctx, query)
	}, classifyJikanError)
	if err != nil {
		c.observe("error")
		return "", wrapTemporaryIfNeeded("resolve cover", err)
	}

	if cover == "" {
		c.store.putMiss(key)
		c.observe("miss")
		return "", nil
	}
	c.observe("hit")
	if err := c.store.put(ctx, key, cover); err != nil {
		c.logger.Warn("cover cache persist failed", "error", err)
	}
	return cover, nil
}

type searchResponse struct {
	Data []struct {
		Images struct {
			JPG struct {
				ImageURL      string `json:"image_url"`
				SmallImageURL string `json:"small_image_url"`
				LargeImageURL string `json:"large_image_url"`
			} `json:"jpg"`
		} `json:"images"`
	} `json:"data"`
}

func (c *Client) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("sfw", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v4/anime?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create jikan request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jikan search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode jikan response: %w", err)
	}
	if len(out.Data) == 0 {
		return "", nil
	}
	jpg := out.Data[0].Images.JPG
	for _, candidate := range []string{jpg.LargeImageURL, jpg.ImageURL, jpg.SmallImageURL} {
		if strings.HasPrefix(candidate, "http") {
			return candidate, nil
		}
	}
	return "", nil
}

func (c *Client) observe(status string) {
	if c.observer != nil {
		c.observer.ObserveCoverLookup(status)
	}
}
