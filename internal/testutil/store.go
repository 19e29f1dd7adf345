// Package testutil provides in-memory stores and helpers shared by tests.
package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/repository"
)

// MemoryStore is an in-memory user and question store with the same
// atomicity guarantees as the Postgres repositories.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[int]*model.User
	questions map[int]*model.Question
	nextUser  int

	// Err, when set, is returned by every call.
	Err error
	// RecordCalls counts RecordCorrectAnswer invocations.
	RecordCalls int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int]*model.User),
		questions: make(map[int]*model.Question),
	}
}

// Users exposes the store as a user repository.
func (m *MemoryStore) Users() *MemoryUsers { return &MemoryUsers{m} }

// Questions exposes the store as a question repository.
func (m *MemoryStore) Questions() *MemoryQuestions { return &MemoryQuestions{m} }

// AddQuestion seeds a question with a fixed ID.
func (m *MemoryStore) AddQuestion(q model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := q
	cp.Options = slices.Clone(q.Options)
	m.questions[q.ID] = &cp
}

// User returns a copy of the stored user.
func (m *MemoryStore) User(id int) (model.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, false
	}
	return copyUser(u), true
}

func copyUser(u *model.User) model.User {
	cp := *u
	cp.AnsweredQuestionIDs = slices.Clone(u.AnsweredQuestionIDs)
	return cp
}

// MemoryUsers implements the user store on a MemoryStore.
type MemoryUsers struct{ m *MemoryStore }

func (r *MemoryUsers) Create(_ context.Context, u *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	for _, existing := range r.m.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	r.m.nextUser++
	u.ID = r.m.nextUser
	u.Score = 0
	u.AnsweredQuestionIDs = []int{}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := copyUser(u)
	r.m.users[u.ID] = &stored
	return nil
}

func (r *MemoryUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	u, ok := r.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyUser(u)
	return &cp, nil
}

func (r *MemoryUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for _, u := range r.m.users {
		if u.Username == username {
			cp := copyUser(u)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *MemoryUsers) RecordCorrectAnswer(_ context.Context, userID, questionID int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.RecordCalls++
	if r.m.Err != nil {
		return 0, r.m.Err
	}
	u, ok := r.m.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if u.HasAnswered(questionID) {
		return 0, repository.ErrAlreadyAnswered
	}
	u.Score++
	u.AnsweredQuestionIDs = append(u.AnsweredQuestionIDs, questionID)
	u.UpdatedAt = time.Now()
	return u.Score, nil
}

func (r *MemoryUsers) ListScores(_ context.Context) ([]model.ScoreEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	scores := make([]model.ScoreEntry, 0, len(r.m.users))
	for _, u := range r.m.users {
		scores = append(scores, model.ScoreEntry{ID: u.ID, Username: u.Username, Score: u.Score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	return scores, nil
}

// MemoryQuestions implements the question store on a MemoryStore.
type MemoryQuestions struct{ m *MemoryStore }

func (r *MemoryQuestions) List(_ context.Context) ([]model.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := make([]model.Question, 0, len(r.m.questions))
	for _, q := range r.m.questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryQuestions) GetByID(_ context.Context, id int) (*model.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	q, ok := r.m.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}
