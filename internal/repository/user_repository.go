package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizboard-backend/internal/model"
)

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, password_hash, score, answered_question_ids, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Score, &u.AnsweredQuestionIDs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	))
}

// Create inserts a new user with a zero score.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, score, answered_question_ids, created_at, updated_at`,
		u.Username, u.PasswordHash,
	).Scan(&u.ID, &u.Score, &u.AnsweredQuestionIDs, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// RecordCorrectAnswer increments the score and appends questionID to the
// answered set in one statement. The row lock taken by UPDATE serializes
// concurrent submissions for the same user; a second writer re-evaluates the
// membership predicate against the committed row and matches nothing.
func (r *UserRepository) RecordCorrectAnswer(ctx context.Context, userID, questionID int) (int, error) {
	var score int
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET score = score + 1,
		     answered_question_ids = array_append(answered_question_ids, $2::int),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND NOT ($2::int = ANY(answered_question_ids))
		 RETURNING score`,
		userID, questionID,
	).Scan(&score)
	if err == nil {
		return score, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// Zero rows: either the user vanished or the pair was already recorded.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrAlreadyAnswered
}

// ListScores returns every user's leaderboard row, highest score first.
func (r *UserRepository) ListScores(ctx context.Context) ([]model.ScoreEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, score FROM users ORDER BY score DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]model.ScoreEntry, 0)
	for rows.Next() {
		var e model.ScoreEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Score); err != nil {
			return nil, err
		}
		scores = append(scores, e)
	}
	return scores, rows.Err()
}
