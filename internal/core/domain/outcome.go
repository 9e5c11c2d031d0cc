package domain

type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchPrefix
	MatchContains
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchContains:
		return "contains"
	default:
		return "unknown"
	}
}

// TitleMatch is one candidate title produced by title resolution.
type TitleMatch struct {
	Title string
	Kind  MatchKind
}

type OutcomeKind string

const (
	// OutcomeRecommended: the query named a title and the items are its
	// nearest neighbors.
	OutcomeRecommended OutcomeKind = "recommended"
	// OutcomeSearch: the items are literal title search hits.
	OutcomeSearch OutcomeKind = "search"
	// OutcomeFallback: similarity was unavailable for the request and the
	// items are literal search hits instead.
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeEmpty    OutcomeKind = "empty"
	OutcomePopular  OutcomeKind = "popular"
)

type SearchOutcome struct {
	Kind  OutcomeKind `json:"outcome"`
	Items []Item      `json:"items"`
}
