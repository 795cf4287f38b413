package transport

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/notes-ai-go/internal/config"
	"github.com/anime-shed/notes-ai-go/internal/controller"
	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/logger"
	"github.com/anime-shed/notes-ai-go/internal/repository"
	"github.com/anime-shed/notes-ai-go/internal/session"
	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// Dependencies are the collaborators the HTTP layer dispatches to.
type Dependencies struct {
	Registry *controller.Registry
	Notes    repository.NoteRepository
	Verifier *session.TokenVerifier

	// Metrics serves /metrics when set.
	Metrics http.Handler
	// BlobDir is served under /blobs when set (local storage backend).
	BlobDir string
}

// blobPrefix is where the local storage backend's files are served.
const blobPrefix = "/blobs"

type handler struct {
	deps Dependencies
	cfg  *config.Config
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	r := gin.Default()
	h := &handler{deps: deps, cfg: cfg}

	// Add middleware
	r.Use(
		corsMiddleware(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	if deps.BlobDir != "" {
		r.Use(static.Serve(blobPrefix, static.LocalFile(deps.BlobDir, false)))
	}

	api := r.Group("/api", authenticate(deps.Verifier))
	{
		api.GET("/notes", h.listNotes)
		api.POST("/notes", h.addNote)
		api.DELETE("/notes/:id", h.deleteNote)

		var limiter *userLimiter
		if cfg.AIRateLimit > 0 {
			limiter = newUserLimiter(cfg.AIRateLimit, cfg.AIRateBurst)
		}
		ai := api.Group("/ai", limiter.middleware())

		vision := ai.Group("/vision")
		vision.POST("/classify", imageRoute(h, "classifyImage", (*controller.Controller).ClassifyImage))
		vision.POST("/text", imageRoute(h, "detectText", (*controller.Controller).DetectText))
		vision.POST("/analyze", imageRoute(h, "analyzeImage", (*controller.Controller).AnalyzeImage))
		vision.POST("/faces", imageRoute(h, "detectFaces", (*controller.Controller).DetectFaces))

		language := ai.Group("/language")
		language.POST("/sentiment", textRoute(h, "analyzeSentiment",
			func(ctrl *controller.Controller, ctx context.Context, req models.TextRequest) (*models.SentimentResult, error) {
				return ctrl.AnalyzeSentiment(ctx, req.Text)
			}))
		language.POST("/translate", textRoute(h, "translateText",
			func(ctrl *controller.Controller, ctx context.Context, req models.TextRequest) (*models.TranslationResult, error) {
				return ctrl.TranslateText(ctx, req.Text, req.TargetLanguage)
			}))
		language.POST("/moderate", textRoute(h, "moderateContent",
			func(ctrl *controller.Controller, ctx context.Context, req models.TextRequest) (*models.ModerationResult, error) {
				return ctrl.ModerateContent(ctx, req.Text)
			}))
		language.POST("/entities", textRoute(h, "extractEntities",
			func(ctrl *controller.Controller, ctx context.Context, req models.TextRequest) (*models.EntityResult, error) {
				return ctrl.ExtractEntities(ctx, req.Text)
			}))
		language.POST("/summarize", textRoute(h, "summarizeText",
			func(ctrl *controller.Controller, ctx context.Context, req models.TextRequest) (*models.SummaryResult, error) {
				return ctrl.SummarizeText(ctx, req.Text, req.MaxSentences)
			}))

		api.GET("/ai/state", h.state)
		api.POST("/ai/reset", h.reset)
		api.POST("/auth/logout", h.logout)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", "Origin"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// authenticate verifies the bearer token and carries the session in the
// request context.
func authenticate(verifier *session.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, apperrors.NewUnauthorizedError("missing bearer token", nil))
			return
		}

		sess, err := verifier.Verify(token)
		if err != nil {
			respondError(c, apperrors.NewUnauthorizedError("invalid token", err))
			return
		}

		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentSession returns the session set by authenticate.
func currentSession(c *gin.Context) *session.Session {
	sess, _ := session.FromContext(c.Request.Context())
	return sess
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	message := controller.Message(err)
	errType := apperrors.GetType(err)

	// Log the error with context
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"error_type":  errType,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Type:    string(errType),
		Message: message,
	})
}
