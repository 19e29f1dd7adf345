package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizboard-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// List retrieves all questions ordered by ID.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question, options, answer, created_at FROM questions ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Options, &q.Answer, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id int) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question, options, answer, created_at FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Question, &q.Options, &q.Answer, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// CreateIfAbsent inserts a question unless one with the same prompt exists.
// Reports whether a row was inserted.
func (r *QuestionRepository) CreateIfAbsent(ctx context.Context, q *model.Question) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (question, options, answer)
		 SELECT $1::text, $2::text[], $3::text
		 WHERE NOT EXISTS (SELECT 1 FROM questions WHERE question = $1)
		 RETURNING id, created_at`,
		q.Question, q.Options, q.Answer,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
