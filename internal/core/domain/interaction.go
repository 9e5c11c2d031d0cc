package domain

import "time"

// InteractionEvent records one served query. Events feed the offline training
// pipeline and never influence serving.
type InteractionEvent struct {
	ID          string      `json:"id"`
	Domain      Domain      `json:"domain"`
	Endpoint    string      `json:"endpoint"`
	Query       string      `json:"query"`
	Outcome     OutcomeKind `json:"outcome"`
	ResultCount int         `json:"result_count"`
	TopTitles   []string    `json:"top_titles,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
