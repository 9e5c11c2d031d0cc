// Package mcpadapter exposes the recommendation engine as MCP tools so agents
// can query it over stdio.
package mcpadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/media-recommender/internal/core/domain"
	"github.com/kirillkom/media-recommender/internal/core/ports"
	"github.com/kirillkom/media-recommender/internal/core/usecase"
)

const (
	serverName     = "media-recommender"
	publishTimeout = 2 * time.Second
)

type Server struct {
	search      ports.SearchRecommender
	recommender ports.Recommender
	catalog     ports.CatalogQueryService
	publisher   ports.InteractionPublisher
	logger      *slog.Logger

	defaultLimit int
	maxLimit     int
}

type Option func(*Server)

func WithInteractionPublisher(publisher ports.InteractionPublisher) Option {
	return func(s *Server) {
		s.publisher = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

func New(
	search ports.SearchRecommender,
	recommender ports.Recommender,
	catalog ports.CatalogQueryService,
	opts ...Option,
) *Server {
	s := &Server{
		search:       search,
		recommender:  recommender,
		catalog:      catalog,
		logger:       slog.Default(),
		defaultLimit: 12,
		maxLimit:     50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MCPServer builds the tool server. version is reported to clients during
// initialization.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("search_recommend",
		mcp.WithDescription("Recommend titles similar to the one named by a free-text query, or list matching titles when the query names none."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Title or partial title")),
		mcp.WithString("type", mcp.Required(), mcp.Enum("anime", "game"), mcp.Description("Catalog to query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), s.handleSearchRecommend)

	srv.AddTool(mcp.NewTool("recommend",
		mcp.WithDescription("Recommend titles similar to an exact catalog title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Exact catalog title")),
		mcp.WithString("type", mcp.Required(), mcp.Enum("anime", "game")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), s.handleRecommend)

	srv.AddTool(mcp.NewTool("popular",
		mcp.WithDescription("List the most popular titles of a catalog."),
		mcp.WithString("type", mcp.Required(), mcp.Enum("anime", "game")),
	), s.handlePopular)

	return srv
}

type toolResult struct {
	Outcome domain.OutcomeKind `json:"outcome"`
	Total   int                `json:"total"`
	Items   []domain.Item      `json:"items"`
}

func (s *Server) handleSearchRecommend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := domain.ParseDomain(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := s.clampLimit(req.GetInt("limit", 0))

	outcome, err := s.search.SearchOrRecommend(ctx, query, d, limit)
	if err != nil {
		s.logger.Warn("search_recommend degraded to title search", "domain", d, "error", err)
		items, fallbackErr := s.catalog.SearchExact(ctx, query, d, limit)
		if fallbackErr != nil {
			return s.toolError(errors.Join(err, fallbackErr)), nil
		}
		outcome = domain.SearchOutcome{Kind: domain.OutcomeFallback, Items: items}
	}

	s.publish(ctx, d, "mcp.search_recommend", query, outcome.Kind, outcome.Items)
	return jsonResult(outcome.Kind, outcome.Items)
}

func (s *Server) handleRecommend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := domain.ParseDomain(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, err := s.recommender.Recommend(ctx, title, d, s.clampLimit(req.GetInt("limit", 0)))
	if err != nil {
		return s.toolError(err), nil
	}

	s.publish(ctx, d, "mcp.recommend", title, domain.OutcomeRecommended, items)
	return jsonResult(domain.OutcomeRecommended, items)
}

func (s *Server) handlePopular(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := domain.ParseDomain(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.catalog.Popular(ctx, d)
	if err != nil {
		return s.toolError(err), nil
	}

	s.publish(ctx, d, "mcp.popular", "", domain.OutcomePopular, items)
	return jsonResult(domain.OutcomePopular, items)
}

func jsonResult(outcome domain.OutcomeKind, items []domain.Item) (*mcp.CallToolResult, error) {
	if items == nil {
		items = []domain.Item{}
	}
	payload, err := json.Marshal(toolResult{Outcome: outcome, Total: len(items), Items: items})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// toolError reports failures as tool results so the calling agent sees them.
// Only input and lookup errors carry their detail.
func (s *Server) toolError(err error) *mcp.CallToolResult {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrUnknownItem):
		return mcp.NewToolResultError(err.Error())
	case domain.IsDomainUnavailable(err), domain.IsKind(err, domain.ErrTemporary):
		s.logger.Error("tool call failed", "error", err)
		return mcp.NewToolResultError("catalog is temporarily unavailable")
	default:
		s.logger.Error("tool call failed", "error", err)
		return mcp.NewToolResultError("internal error")
	}
}

func (s *Server) clampLimit(limit int) int {
	switch {
	case limit == 0:
		return min(s.defaultLimit, s.maxLimit)
	case limit < 0:
		return 1
	case limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}

func (s *Server) publish(ctx context.Context, d domain.Domain, endpoint, query string, outcome domain.OutcomeKind, items []domain.Item) {
	if s.publisher == nil {
		return
	}
	event := usecase.NewInteractionEvent(d, endpoint, query, outcome, items)
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if err := s.publisher.PublishInteraction(publishCtx, event); err != nil {
			s.logger.Warn("interaction publish failed", "endpoint", endpoint, "domain", d, "error", err)
		}
	}()
}
