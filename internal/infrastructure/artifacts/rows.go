package artifacts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

const maxTitleLength = 300

// itemRow mirrors one record of items.json. Exported data sets disagree on
// whether ids, years and prices are numbers or strings, so those stay raw.
type itemRow struct {
	ID         json.RawMessage `json:"id"`
	AppID      json.RawMessage `json:"app_id"`
	Title      json.RawMessage `json:"title"`
	Rating     json.RawMessage `json:"rating"`
	ImageURL   string          `json:"image_url"`
	Genre      json.RawMessage `json:"genre"`
	Year       json.RawMessage `json:"year"`
	Popularity json.RawMessage `json:"popularity"`
	Price      json.RawMessage `json:"price"`
}

// canonicalTitle is the form a title takes in every artifact table. All three
// files join on it, so they must apply it alike.
func canonicalTitle(title string) string {
	return strings.TrimSpace(title)
}

func canonicalTitles(titles []string) []string {
	out := make([]string, len(titles))
	for i, title := range titles {
		out[i] = canonicalTitle(title)
	}
	return out
}

func buildItems(d domain.Domain, rows []itemRow) []domain.Item {
	items := make([]domain.Item, 0, len(rows))
	for idx, row := range rows {
		item, ok := row.toItem(d, idx)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (r itemRow) toItem(d domain.Domain, idx int) (domain.Item, bool) {
	title, _ := rawText(r.Title)
	title = canonicalTitle(title)
	if title == "" || len([]rune(title)) > maxTitleLength {
		return domain.Item{}, false
	}

	appID, hasAppID := rawInt(r.AppID)

	id, _ := rawText(r.ID)
	if id == "" && hasAppID {
		id = strconv.FormatInt(appID, 10)
	}
	if id == "" {
		id = fmt.Sprintf("%s-%d", d, idx)
	}

	imageURL := strings.TrimSpace(r.ImageURL)
	if !strings.HasPrefix(imageURL, "http") {
		imageURL = ""
	}
	if imageURL == "" && hasAppID && d == domain.DomainGame {
		imageURL = steamHeaderURL(appID)
	}

	item := domain.Item{
		ID:       id,
		Title:    title,
		Type:     d,
		Rating:   parseRating(d, r.Rating),
		ImageURL: imageURL,
		Metadata: domain.Metadata{
			Genre: rawGenre(r.Genre),
		},
	}
	if year, ok := rawInt(r.Year); ok && year > 0 {
		y := int(year)
		item.Metadata.Year = &y
	}
	if pop, ok := rawInt(r.Popularity); ok {
		item.Metadata.Popularity = int(pop)
	}
	if price, ok := rawFloat(r.Price); ok {
		item.Metadata.Price = &price
	}
	return item, true
}

func steamHeaderURL(appID int64) string {
	return fmt.Sprintf("https://cdn.akamai.steamstatic.com/steam/apps/%d/header.jpg", appID)
}

// parseRating accepts numeric ratings for every domain and Steam review
// labels for games.
func parseRating(d domain.Domain, raw json.RawMessage) float64 {
	if v, ok := rawFloat(raw); ok {
		return v
	}
	if d != domain.DomainGame {
		return 0
	}
	label, _ := rawText(raw)
	return steamLabelRating(label)
}

func steamLabelRating(label string) float64 {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "very positive"), strings.Contains(label, "overwhelmingly positive"):
		return 5
	case strings.Contains(label, "very negative"), strings.Contains(label, "overwhelmingly negative"):
		return 1
	case strings.Contains(label, "positive"):
		return 4
	case strings.Contains(label, "mixed"):
		return 3
	case strings.Contains(label, "negative"):
		return 2
	default:
		return 0
	}
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// rawText renders a JSON string or number as text.
func rawText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func rawFloat(raw json.RawMessage) (float64, bool) {
	text, ok := rawText(raw)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func rawInt(raw json.RawMessage) (int64, bool) {
	v, ok := rawFloat(raw)
	if !ok || v != float64(int64(v)) {
		return 0, false
	}
	return int64(v), true
}

// rawGenre accepts a single string or a list of genre names.
func rawGenre(raw json.RawMessage) string {
	if text, ok := rawText(raw); ok {
		return strings.TrimSpace(text)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}
