package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

func TestDecodeEventRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"id":`,
		"missing id":     `{"domain":"anime","endpoint":"popular"}`,
		"unknown domain": `{"id":"e1","domain":"music","endpoint":"popular"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeEvent([]byte(payload)); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeKeepsEventFields(t *testing.T) {
	occurred := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	payload, err := encodeEvent(domain.InteractionEvent{
		ID:          "e1",
		Domain:      domain.DomainGame,
		Endpoint:    "search_recommend",
		Query:       "portal",
		Outcome:     domain.OutcomeRecommended,
		ResultCount: 2,
		TopTitles:   []string{"Portal 2", "Half-Life"},
		OccurredAt:  occurred,
	})
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	event, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if event.Domain != domain.DomainGame || event.Outcome != domain.OutcomeRecommended || len(event.TopTitles) != 2 || !event.OccurredAt.Equal(occurred) {
		t.Fatalf("unexpected decoded event: %+v", event)
	}
}

func TestEncodeEventRequiresID(t *testing.T) {
	if _, err := encodeEvent(domain.InteractionEvent{Domain: domain.DomainAnime}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClassifyNATSError(t *testing.T) {
	if !classifyNATSError(nats.ErrNoServers).Retryable {
		t.Fatalf("no servers should be retryable")
	}
	if classifyNATSError(context.Canceled).RecordFailure {
		t.Fatalf("cancellation should not count against the breaker")
	}
	if classifyNATSError(errors.New("bad subject")).Retryable {
		t.Fatalf("unknown errors should not be retried")
	}
	if !domain.IsKind(wrapTemporaryIfNeeded(nats.ErrTimeout), domain.ErrTemporary) {
		t.Fatalf("timeouts should surface as temporary")
	}
	if class := classifyNATSError(nats.ErrMaxPayload); class.Retryable || class.RecordFailure {
		t.Fatalf("oversized payloads are neither retried nor counted, got %+v", class)
	}
	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
