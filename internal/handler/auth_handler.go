package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/response"
	"github.com/stemsi/quizboard-backend/internal/service"
	"github.com/stemsi/quizboard-backend/internal/validator"
)

// AuthHandler handles account registration and login.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /auth/register
// Creates an account with a bcrypt-hashed password. Scores start at zero.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Fail(c, http.StatusConflict, response.ErrUsernameTaken)
			return
		}
		h.log.Error().
			Err(err).
			Str("op", "register").
			Str("request_id", response.RequestID(c)).
			Msg("Registration failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.MessageResponse{Message: "User registered successfully"})
}

// Login godoc
// POST /auth/login
// Verifies username + password and returns a signed bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().
			Err(err).
			Str("op", "login").
			Str("request_id", response.RequestID(c)).
			Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token})
}
