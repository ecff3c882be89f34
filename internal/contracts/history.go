package contracts

import "time"

// HistoryEntry is the persisted last recommendation of a symbol
type HistoryEntry struct {
	Symbol        string    `json:"symbol"`
	RecommendedAt time.Time `json:"recommended_at"`
	Score         float64   `json:"score"`
	PriceDelta    float64   `json:"price_delta"`
}

// RecommendationInfo is a display view of a HistoryEntry
type RecommendationInfo struct {
	Symbol          string    `json:"symbol"`
	LastRecommended time.Time `json:"last_recommended"`
	DaysAgo         int       `json:"days_ago"`
	Score           float64   `json:"score"`
	PriceDelta      float64   `json:"price_delta"`
}
