package model

// ScoreEntry is one leaderboard row as pushed to realtime subscribers.
type ScoreEntry struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}
