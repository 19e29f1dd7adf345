package model

import (
	"slices"
	"time"
)

// User is a quiz player account.
type User struct {
	ID                  int       `json:"id"`
	Username            string    `json:"username"`
	PasswordHash        string    `json:"-"`
	Score               int       `json:"score"`
	AnsweredQuestionIDs []int     `json:"answered_question_ids"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HasAnswered reports whether the user already scored on questionID.
func (u *User) HasAnswered(questionID int) bool {
	return slices.Contains(u.AnsweredQuestionIDs, questionID)
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,notblank,max=64"`
	Password string `json:"password" binding:"required,min=1,maxbytes=72"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a short confirmation with no sensitive data.
type MessageResponse struct {
	Message string `json:"message"`
}
