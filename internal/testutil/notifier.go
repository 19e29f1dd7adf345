package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/stemsi/quizboard-backend/internal/model"
)

// RecordingNotifier captures every broadcast leaderboard.
type RecordingNotifier struct {
	mu         sync.Mutex
	broadcasts [][]model.ScoreEntry

	// Err is returned from BroadcastScores after recording.
	Err error
}

func (n *RecordingNotifier) BroadcastScores(_ context.Context, scores []model.ScoreEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, slices.Clone(scores))
	return n.Err
}

// Broadcasts returns a copy of everything broadcast so far.
func (n *RecordingNotifier) Broadcasts() [][]model.ScoreEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.broadcasts)
}

// SeedQuestion is the question used across handler and service tests.
var SeedQuestion = model.Question{
	ID:       1,
	Question: "What is 2+2?",
	Options:  []string{"3", "4", "5", "6"},
	Answer:   "4",
}
