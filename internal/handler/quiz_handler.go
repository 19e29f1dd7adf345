package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/middleware"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/response"
	"github.com/stemsi/quizboard-backend/internal/service"
	"github.com/stemsi/quizboard-backend/internal/validator"
)

// QuizHandler serves questions, answer submission and the leaderboard.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /quiz/questions
// Returns every question without its answer.
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	questions, err := h.quizService.ListQuestions(c.Request.Context())
	if err != nil {
		h.internalError(c, "list_questions", err)
		return
	}

	response.Success(c, http.StatusOK, questions)
}

// Submit godoc
// POST /quiz/submit
// Checks an answer for the authenticated user. A correct first answer scores
// a point and pushes the leaderboard to subscribers.
func (h *QuizHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	correct, err := h.quizService.SubmitAnswer(c.Request.Context(), claims.UserID, req.QuestionID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyAnswered):
			response.Fail(c, http.StatusBadRequest, response.ErrAlreadyAnswered)
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
		default:
			h.internalError(c, "submit_answer", err)
		}
		return
	}

	response.Success(c, http.StatusOK, model.SubmitAnswerResponse{IsCorrect: correct})
}

// Scoreboard godoc
// GET /quiz/scoreboard
// Returns the current leaderboard, highest score first.
func (h *QuizHandler) Scoreboard(c *gin.Context) {
	scores, err := h.quizService.Scoreboard(c.Request.Context())
	if err != nil {
		h.internalError(c, "scoreboard", err)
		return
	}

	response.Success(c, http.StatusOK, scores)
}

func (h *QuizHandler) internalError(c *gin.Context, op string, err error) {
	h.log.Error().
		Err(err).
		Str("op", op).
		Str("request_id", response.RequestID(c)).
		Msg("Quiz request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
