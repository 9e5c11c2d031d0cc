package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

const schemaLockID int64 = 2026101501

type InteractionRepository struct {
	db *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Several workers may start together.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS interaction_events (
	id TEXT PRIMARY KEY,
	domain TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	query TEXT NOT NULL DEFAULT '',
	outcome TEXT NOT NULL DEFAULT '',
	result_count INTEGER NOT NULL DEFAULT 0,
	top_titles JSONB NOT NULL DEFAULT '[]'::jsonb,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interaction_events_domain_occurred ON interaction_events(domain, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_interaction_events_outcome ON interaction_events(outcome);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveInteraction stores event once; redelivered events are ignored.
func (r *InteractionRepository) SaveInteraction(ctx context.Context, event *domain.InteractionEvent) error {
	if event == nil || strings.TrimSpace(event.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save interaction", fmt.Errorf("event id is required"))
	}

	titles := event.TopTitles
	if titles == nil {
		titles = []string{}
	}
	titlesJSON, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("marshal top titles: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO interaction_events (
	id, domain, endpoint, query, outcome, result_count, top_titles, occurred_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`,
		event.ID, string(event.Domain), event.Endpoint, event.Query, string(event.Outcome),
		event.ResultCount, titlesJSON, event.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert interaction event: %w", err)
	}
	return nil
}
