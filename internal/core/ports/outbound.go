package ports

import (
	"context"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

// ArtifactLoader decodes the offline-built artifacts of one domain.
type ArtifactLoader interface {
	Load(ctx context.Context, d domain.Domain) (*domain.Artifacts, error)
}

// ArtifactProvider returns the resident artifacts of a domain, loading them on
// first use.
type ArtifactProvider interface {
	Get(ctx context.Context, d domain.Domain) (*domain.Artifacts, error)
}

// CoverArtResolver finds a cover image URL for a title. An empty URL with a
// nil error means no cover is known.
type CoverArtResolver interface {
	ResolveCover(ctx context.Context, title string) (string, error)
}

// InteractionPublisher emits served-query events.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, event domain.InteractionEvent) error
}

// InteractionQueue publishes and consumes served-query events.
type InteractionQueue interface {
	InteractionPublisher
	SubscribeInteractions(ctx context.Context, handler func(context.Context, domain.InteractionEvent) error) error
}

// InteractionRepository persists served-query events.
type InteractionRepository interface {
	SaveInteraction(ctx context.Context, event *domain.InteractionEvent) error
}
