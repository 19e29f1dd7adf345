package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned on a unique violation of users.username.
	ErrDuplicateUsername = errors.New("user with this username already exists")
	// ErrAlreadyAnswered is returned when the user already scored on the question.
	ErrAlreadyAnswered = errors.New("question already answered")
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"
