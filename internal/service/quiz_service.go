package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/metrics"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/repository"
)

// Quiz errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadyAnswered  = errors.New("question already answered")
)

// QuizService serves questions and processes answer submissions.
type QuizService struct {
	users     UserStore
	questions QuestionStore
	notifier  ScoreNotifier
	metrics   metrics.Recorder
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService. The notifier is fixed for the
// lifetime of the service.
func NewQuizService(users UserStore, questions QuestionStore, notifier ScoreNotifier, rec metrics.Recorder, log zerolog.Logger) *QuizService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &QuizService{
		users:     users,
		questions: questions,
		notifier:  notifier,
		metrics:   rec,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// ListQuestions returns every question with the correct answer removed.
func (s *QuizService) ListQuestions(ctx context.Context) ([]model.PublicQuestion, error) {
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	out := make([]model.PublicQuestion, 0, len(questions))
	for i := range questions {
		out = append(out, questions[i].Public())
	}
	return out, nil
}

// SubmitAnswer checks an answer for userID. A correct first answer scores one
// point and triggers a leaderboard broadcast. Wrong answers change nothing and
// may be retried.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, questionID int, answer string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordSubmission(metrics.OutcomeNotFound)
			return false, ErrUserNotFound
		}
		s.metrics.RecordSubmission(metrics.OutcomeError)
		return false, fmt.Errorf("load user: %w", err)
	}

	if user.HasAnswered(questionID) {
		s.metrics.RecordSubmission(metrics.OutcomeDuplicate)
		return false, ErrAlreadyAnswered
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordSubmission(metrics.OutcomeNotFound)
			return false, ErrQuestionNotFound
		}
		s.metrics.RecordSubmission(metrics.OutcomeError)
		return false, fmt.Errorf("load question: %w", err)
	}

	if !question.IsCorrect(answer) {
		s.metrics.RecordSubmission(metrics.OutcomeIncorrect)
		return false, nil
	}

	score, err := s.users.RecordCorrectAnswer(ctx, userID, questionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyAnswered):
			// Lost the race against a concurrent submission of the same pair.
			s.metrics.RecordSubmission(metrics.OutcomeDuplicate)
			return false, ErrAlreadyAnswered
		case errors.Is(err, repository.ErrNotFound):
			s.metrics.RecordSubmission(metrics.OutcomeNotFound)
			return false, ErrUserNotFound
		}
		s.metrics.RecordSubmission(metrics.OutcomeError)
		return false, fmt.Errorf("record answer: %w", err)
	}

	s.metrics.RecordSubmission(metrics.OutcomeCorrect)
	s.log.Debug().
		Int("user_id", userID).
		Int("question_id", questionID).
		Int("score", score).
		Msg("Correct answer recorded")

	s.publishScores(ctx)
	return true, nil
}

// Scoreboard returns the current leaderboard.
func (s *QuizService) Scoreboard(ctx context.Context) ([]model.ScoreEntry, error) {
	scores, err := s.users.ListScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// publishScores pushes the full leaderboard. Failures are logged and never
// affect the submission result. The fan-out outlives the request: a client
// hanging up after a correct answer must not cancel everyone's update.
func (s *QuizService) publishScores(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	scores, err := s.users.ListScores(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("op", "broadcast_scores").Msg("Failed to load leaderboard")
		return
	}

	if err := s.notifier.BroadcastScores(ctx, scores); err != nil {
		s.log.Error().Err(err).Str("op", "broadcast_scores").Msg("Failed to broadcast leaderboard")
	}
}
