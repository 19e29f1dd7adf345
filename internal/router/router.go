package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/handler"
	"github.com/stemsi/quizboard-backend/internal/metrics"
	"github.com/stemsi/quizboard-backend/internal/middleware"
	"github.com/stemsi/quizboard-backend/internal/response"
	"github.com/stemsi/quizboard-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth *handler.AuthHandler
	Quiz *handler.QuizHandler
	WS   *handler.WSHandler
}

// Deps carries the shared infrastructure the routes need.
type Deps struct {
	AuthService *service.AuthService
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	AuthLimiter *middleware.RateLimiter
	Log         zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(cfg *config.Config, deps Deps, handlers *Handlers) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode == gin.DebugMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		SkipPaths: []string{"/metrics"},
	}))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/auth")
	auth.Use(middleware.NoStore())
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.Middleware())
	}
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// ─── 2. Quiz Group (JWT) ───────────────────────────────────────────
	quiz := router.Group("/quiz")
	quiz.Use(
		middleware.NoStore(),
		middleware.RequireJWT(deps.AuthService, deps.Log),
	)
	{
		quiz.GET("/questions", handlers.Quiz.ListQuestions)
		quiz.POST("/submit", handlers.Quiz.Submit)
		quiz.GET("/scoreboard", handlers.Quiz.Scoreboard)
	}

	// ─── 3. Realtime (Public, origin-checked) ──────────────────────────
	router.GET("/ws/scoreboard", handlers.WS.ScoreboardStream)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
