package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

const interactionTopTitles = 5

// NewInteractionEvent describes one served query for the interaction log.
func NewInteractionEvent(
	d domain.Domain,
	endpoint string,
	query string,
	outcome domain.OutcomeKind,
	items []domain.Item,
) domain.InteractionEvent {
	top := make([]string, 0, min(len(items), interactionTopTitles))
	for _, item := range items {
		if len(top) == interactionTopTitles {
			break
		}
		top = append(top, item.Title)
	}
	return domain.InteractionEvent{
		ID:          uuid.NewString(),
		Domain:      d,
		Endpoint:    endpoint,
		Query:       query,
		Outcome:     outcome,
		ResultCount: len(items),
		TopTitles:   top,
		OccurredAt:  time.Now().UTC(),
	}
}
