package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	// EventScoreUpdated carries the full leaderboard as []model.ScoreEntry.
	EventScoreUpdated Event = "scoreUpdated"
)

// Message is the envelope written to subscribers.
type Message struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}
