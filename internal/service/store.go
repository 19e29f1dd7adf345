package service

import (
	"context"

	"github.com/stemsi/quizboard-backend/internal/model"
)

// UserStore persists user accounts and their scores.
// RecordCorrectAnswer must apply the increment and the answered-set append
// atomically and return repository.ErrAlreadyAnswered when the pair exists.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	RecordCorrectAnswer(ctx context.Context, userID, questionID int) (int, error)
	ListScores(ctx context.Context) ([]model.ScoreEntry, error)
}

// QuestionStore reads seeded questions.
type QuestionStore interface {
	List(ctx context.Context) ([]model.Question, error)
	GetByID(ctx context.Context, id int) (*model.Question, error)
}

// ScoreNotifier pushes the leaderboard to realtime subscribers.
// Delivery is fire-and-forget.
type ScoreNotifier interface {
	BroadcastScores(ctx context.Context, scores []model.ScoreEntry) error
}
