package nats

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

func encodeEvent(event domain.InteractionEvent) ([]byte, error) {
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode interaction", fmt.Errorf("event id is required"))
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal interaction event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.InteractionEvent, error) {
	var event domain.InteractionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.InteractionEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode interaction", err)
	}
	if strings.TrimSpace(event.ID) == "" {
		return domain.InteractionEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode interaction", fmt.Errorf("event id is required"))
	}
	if _, err := domain.ParseDomain(string(event.Domain)); err != nil {
		return domain.InteractionEvent{}, err
	}
	return event, nil
}
