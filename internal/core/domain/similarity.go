package domain

import (
	"fmt"
	"math"
	"sort"
)

type Neighbor struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SimilarityIndex maps a title to the other titles of the same domain ordered
// by descending similarity. Rows never contain their own title.
type SimilarityIndex struct {
	rows map[string][]Neighbor
}

// NewSimilarityIndex builds ranked rows from a square title-by-title matrix.
// Scores that are not finite or not positive carry no signal and are dropped;
// scores above 1 are clamped. Equal scores are ordered by popularity
// descending, then by matrix column order.
func NewSimilarityIndex(titles []string, scores [][]float64, popularity func(title string) int) (*SimilarityIndex, error) {
	if len(scores) != len(titles) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d titles", len(scores), len(titles))
	}
	if popularity == nil {
		popularity = func(string) int { return 0 }
	}

	seen := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if title == "" {
			return nil, fmt.Errorf("similarity matrix has an empty title")
		}
		if _, dup := seen[title]; dup {
			return nil, fmt.Errorf("similarity matrix repeats title %q", title)
		}
		seen[title] = struct{}{}
	}

	rows := make(map[string][]Neighbor, len(titles))
	for i, title := range titles {
		if len(scores[i]) != len(titles) {
			return nil, fmt.Errorf("similarity row %q has %d columns, want %d", title, len(scores[i]), len(titles))
		}
		row := make([]Neighbor, 0, len(titles)-1)
		for j, score := range scores[i] {
			if j == i || math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 {
				continue
			}
			row = append(row, Neighbor{Title: titles[j], Score: math.Min(score, 1)})
		}
		sort.SliceStable(row, func(a, b int) bool {
			if row[a].Score != row[b].Score {
				return row[a].Score > row[b].Score
			}
			return popularity(row[a].Title) > popularity(row[b].Title)
		})
		rows[title] = row
	}
	return &SimilarityIndex{rows: rows}, nil
}

// Row returns the ranked neighbors of title. The returned slice must not be
// modified.
func (x *SimilarityIndex) Row(title string) ([]Neighbor, bool) {
	row, ok := x.rows[title]
	if !ok {
		return nil, false
	}
	return row, true
}

func (x *SimilarityIndex) Has(title string) bool {
	_, ok := x.rows[title]
	return ok
}

func (x *SimilarityIndex) Len() int {
	return len(x.rows)
}
