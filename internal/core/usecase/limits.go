package usecase

import "github.com/kirillkom/media-recommender/internal/core/domain"

const defaultLimit = 12

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func trimItems(items []domain.Item, limit int) []domain.Item {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}
