// Package noop provides an interaction publisher that drops every event.
package noop

import (
	"context"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

type Publisher struct{}

func (Publisher) PublishInteraction(context.Context, domain.InteractionEvent) error {
	return nil
}
