package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Question is a multiple-choice prompt. Immutable after seeding.
type Question struct {
	ID        int       `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicQuestion is the client view of a Question. It has no answer field.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Public strips the correct answer.
func (q *Question) Public() PublicQuestion {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return PublicQuestion{
		ID:       q.ID,
		Question: q.Question,
		Options:  options,
	}
}

// IsCorrect compares a submitted answer using exact string equality.
func (q *Question) IsCorrect(answer string) bool {
	return q.Answer == answer
}

// SeedQuestion is the shape accepted by the seeding command.
type SeedQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// DefaultSeedQuestions is the starter question set.
var DefaultSeedQuestions = []SeedQuestion{
	{
		Question: "What is the capital of France?",
		Options:  []string{"Paris", "London", "Berlin", "Rome"},
		Answer:   "Paris",
	},
	{
		Question: "What is 2 + 2?",
		Options:  []string{"3", "4", "5", "6"},
		Answer:   "4",
	},
}

// Validate checks that the prompt is set, there are at least two options and
// the answer is one of them.
func (s SeedQuestion) Validate() error {
	if strings.TrimSpace(s.Question) == "" {
		return errors.New("question text is required")
	}
	if len(s.Options) < 2 {
		return fmt.Errorf("question %q needs at least two options", s.Question)
	}
	if !slices.Contains(s.Options, s.Answer) {
		return fmt.Errorf("question %q: answer %q is not one of the options", s.Question, s.Answer)
	}
	return nil
}

// ToQuestion converts the seed entry into a storable question.
func (s SeedQuestion) ToQuestion() *Question {
	return &Question{Question: s.Question, Options: slices.Clone(s.Options), Answer: s.Answer}
}

// SubmitAnswerRequest is the payload for answering a question.
type SubmitAnswerRequest struct {
	QuestionID int    `json:"questionId" binding:"required,min=1,max=2147483647"`
	Answer     string `json:"answer" binding:"required,max=1000"`
}

// SubmitAnswerResponse tells the caller whether the answer was correct.
type SubmitAnswerResponse struct {
	IsCorrect bool `json:"isCorrect"`
}
