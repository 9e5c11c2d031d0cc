package domain

import "time"

// Artifacts is the resident, read-only state of one domain.
type Artifacts struct {
	Domain     Domain
	Catalog    *Catalog
	Similarity *SimilarityIndex
	Popular    PopularityTable
	LoadedAt   time.Time
}
