package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrUnauthorized       ErrCode = "UNAUTHORIZED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrUsernameTaken    ErrCode = "USERNAME_TAKEN"
	ErrUserNotFound     ErrCode = "USER_NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrNotFound         ErrCode = "NOT_FOUND"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrAlreadyAnswered ErrCode = "ALREADY_ANSWERED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid username or password"
	case ErrUnauthorized:
		return "Unauthorized"
	case ErrValidation:
		return "Validation failed"
	case ErrUsernameTaken:
		return "Username already exists"
	case ErrUserNotFound:
		return "User not found"
	case ErrQuestionNotFound:
		return "Question not found"
	case ErrNotFound:
		return "Not found"
	case ErrAlreadyAnswered:
		return "Question already answered"
	case ErrRateLimitExceeded:
		return "Too many requests, please try again later"
	case ErrInternal:
		return "An unexpected error occurred"
	default:
		return "An unexpected error occurred"
	}
}
