package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/usecase"
)

const (
	maxBodyBytes   = 64 << 10
	publishTimeout = 2 * time.Second
)

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports per-domain load state. The service is ready while at least
// one domain can still serve.
func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	if rt.status == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
		return
	}

	domains := rt.status.Status()
	unavailable := 0
	for _, s := range domains {
		if s == "unavailable" {
			unavailable++
		}
	}
	status, code := "ready", http.StatusOK
	if len(domains) > 0 && unavailable == len(domains) {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "domains": domains})
}

func (rt *Router) popular(w http.ResponseWriter, r *http.Request) {
	d, err := domain.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	items, err := rt.catalog.Popular(r.Context(), d)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if d == domain.DomainAnime && rt.covers != nil {
		items = rt.covers.Enrich(r.Context(), items)
	}

	rt.served(r.Context(), d, "popular", "", domain.OutcomePopular, items)
	writeItems(w, items, domain.OutcomePopular)
}

func (rt *Router) searchExact(w http.ResponseWriter, r *http.Request) {
	d, err := domain.ParseDomain(chi.URLParam(r, "domain"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	query, err := pathParam(r, "query")
	if err != nil {
		writeError(w, http.StatusBadRequest, "query is not valid percent-encoding")
		return
	}
	limit, err := rt.queryLimit(r, rt.cfg.SearchLimit)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	items, err := rt.catalog.SearchExact(r.Context(), query, d, limit)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	outcome := domain.OutcomeSearch
	if len(items) == 0 {
		outcome = domain.OutcomeEmpty
	}
	rt.served(r.Context(), d, "search", query, outcome, items)
	writeItems(w, items, outcome)
}

type searchRecommendRequest struct {
	Query string `json:"query"`
	Type  string `json:"type"`
	Limit int    `json:"limit"`
}

func (rt *Router) searchRecommend(w http.ResponseWriter, r *http.Request) {
	var req searchRecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	d, err := domain.ParseDomain(req.Type)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	limit := rt.clampLimit(req.Limit)

	outcome, err := rt.search.SearchOrRecommend(r.Context(), req.Query, d, limit)
	if err != nil {
		rt.logger.Warn("search_recommend degraded to title search",
			"request_id", requestIDFromContext(r.Context()),
			"domain", d,
			"error", err,
		)
		items, fallbackErr := rt.catalog.SearchExact(r.Context(), req.Query, d, limit)
		if fallbackErr != nil {
			rt.writeDomainError(w, r, errors.Join(err, fallbackErr))
			return
		}
		outcome = domain.SearchOutcome{Kind: domain.OutcomeFallback, Items: items}
	}

	rt.served(r.Context(), d, "search_recommend", req.Query, outcome.Kind, outcome.Items)
	writeItems(w, outcome.Items, outcome.Kind)
}

type recommendRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Limit int    `json:"limit"`
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	d, err := domain.ParseDomain(req.Type)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	items, err := rt.recommender.Recommend(r.Context(), req.Title, d, rt.clampLimit(req.Limit))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	rt.served(r.Context(), d, "recommend", req.Title, domain.OutcomeRecommended, items)
	writeItems(w, items, domain.OutcomeRecommended)
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	if rt.openapi == nil {
		writeError(w, http.StatusNotFound, "openapi document not configured")
		return
	}
	writeJSON(w, http.StatusOK, rt.openapi)
}

// pathParam returns the decoded value of a route parameter. chi matches on
// RawPath when the request carries one, leaving the parameter escaped;
// otherwise the parameter is already decoded and must be used as is.
func pathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json body"))
	}
	return nil
}

// clampLimit maps an absent limit to the default and keeps the rest within
// [1, MaxLimit].
func (rt *Router) clampLimit(limit int) int {
	maxLimit := rt.cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 50
	}
	switch {
	case limit == 0:
		if rt.cfg.DefaultLimit > 0 {
			return min(rt.cfg.DefaultLimit, maxLimit)
		}
		return min(12, maxLimit)
	case limit < 0:
		return 1
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

func (rt *Router) queryLimit(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		if fallback <= 0 {
			return rt.clampLimit(0), nil
		}
		return rt.clampLimit(fallback), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse limit", errors.New("limit must be an integer"))
	}
	return rt.clampLimit(n), nil
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, publicErrorMessage(status, err))
}

// served records metrics and publishes the interaction event. Publishing is
// best-effort and never delays or fails the response.
func (rt *Router) served(ctx context.Context, d domain.Domain, endpoint, query string, outcome domain.OutcomeKind, items []domain.Item) {
	if rt.metrics != nil {
		rt.metrics.RecordOutcome(endpoint, string(d), string(outcome), len(items))
	}
	if rt.publisher == nil {
		return
	}

	event := usecase.NewInteractionEvent(d, endpoint, query, outcome, items)
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if err := rt.publisher.PublishInteraction(publishCtx, event); err != nil {
			rt.logger.Warn("interaction publish failed", "endpoint", endpoint, "domain", d, "error", err)
			if rt.metrics != nil {
				rt.metrics.RecordPublishFailure(endpoint)
			}
		}
	}()
}
