package domain

import (
	"fmt"
	"strings"
)

type Domain string

const (
	DomainAnime Domain = "anime"
	DomainGame  Domain = "game"
)

// Domains lists every served catalog in a stable order.
func Domains() []Domain {
	return []Domain{DomainAnime, DomainGame}
}

func ParseDomain(raw string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "anime":
		return DomainAnime, nil
	case "game", "games":
		return DomainGame, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse domain", fmt.Errorf("unsupported type %q", raw))
	}
}

// Metadata holds the optional per-domain attributes of an item. Genre and Year
// are mostly set for anime, Price for games.
type Metadata struct {
	Genre      string   `json:"genre,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Popularity int      `json:"popularity"`
	Price      *float64 `json:"price,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

type Item struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Type     Domain   `json:"type"`
	Rating   float64  `json:"rating"`
	ImageURL string   `json:"image_url,omitempty"`
	Metadata Metadata `json:"metadata"`
}
