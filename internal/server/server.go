// Package server exposes the translation job, glossary, export and
// proofreading operations over HTTP.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/glossary"
	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/orchestrator"
	"github.com/valpere/pagetran/internal/proofread"
)

// maxUploadBytes caps PDF uploads held in memory for inspection.
const maxUploadBytes = 64 << 20

type ModelStatus interface {
	Status() model.Status
	Catalog() model.Catalog
}

type Glossary interface {
	All(ctx context.Context) (glossary.Terms, error)
	Entries(ctx context.Context) ([]glossary.Term, error)
	Add(ctx context.Context, source, target string) (glossary.Term, error)
	ReplaceAll(ctx context.Context, mapping map[string]string) (glossary.Terms, error)
}

type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Models       ModelStatus
	Glossary     Glossary
	Proofreader  proofread.Proofreader
	DefaultTier  model.Tier
	CORSOrigins  []string
}

type Server struct {
	deps   Deps
	router *gin.Engine
	// tier is the quality used by requests that do not name one.
	tier atomic.Pointer[model.Tier]
}

func New(deps Deps) *Server {
	if deps.DefaultTier == "" {
		deps.DefaultTier = model.TierBalanced
	}
	s := &Server{deps: deps}
	tier := deps.DefaultTier
	s.tier.Store(&tier)

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/", s.root)
	router.GET("/health", s.health)

	api := router.Group("/api")
	api.POST("/pdf/inspect", s.inspectPDF)
	api.POST("/pdf/sections", s.sections)
	api.POST("/translate/pages", s.translatePages)
	api.POST("/translate/batch", s.translateBatch)
	api.POST("/translate/start", s.startTranslation)
	api.GET("/translate/job", s.currentJob)
	api.GET("/translate/progress", s.progress)
	api.POST("/translate/cancel", s.cancel)
	api.GET("/quality/info", s.qualityInfo)
	api.POST("/quality/set", s.setQuality)
	api.GET("/glossary", s.getGlossary)
	api.POST("/glossary/add", s.addGlossaryTerm)
	api.POST("/glossary/update", s.updateGlossary)
	api.POST("/download/translation", s.download)
	api.POST("/proofread", s.proofread)

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// Progress is polled every second or so.
		level := logger.LevelInfo
		if c.FullPath() == "/api/translate/progress" {
			level = logger.LevelDebug
		}
		logger.With("method", c.Request.Method, "path", c.Request.URL.Path).Log(
			c.Request.Context(), level, "HTTP request",
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}
}

func statusFor(err error) int {
	kind, _ := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindJobAlreadyRunning:
		return http.StatusConflict
	case apperrors.KindModelLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		logger.Warn("Request rejected", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"success": false, "error": apperrors.PublicMessage(err)})
}

// bindJSON reports malformed bodies as validation errors.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperrors.New(apperrors.KindValidation, "Invalid request body.", err))
		return false
	}
	return true
}
