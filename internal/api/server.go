// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gbl-data/leadpipe/internal/classify"
	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/dedup"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/processor"
	"github.com/gbl-data/leadpipe/internal/rerank"
	"github.com/gbl-data/leadpipe/internal/validation"
)

// Server hosts the HTTP API.
type Server struct {
	config     config.ServiceConfig
	store      *database.Store
	processor  *processor.Processor
	classifier *classify.OrganizationClassifier
	contactCls *classify.ContactClassifier
	gate       *validation.Gate
	reranker   *rerank.Reranker
	contactDdp *dedup.ContactDeduper
	orgDdp     *dedup.OrgDeduper
	registry   *prometheus.Registry
	logger     logger.Logger

	excludedSuffixes []string

	httpServer *http.Server
}

// Deps bundles the collaborators the server routes to.
type Deps struct {
	Store              *database.Store
	Processor          *processor.Processor
	Classifier         *classify.OrganizationClassifier
	ContactClassifier  *classify.ContactClassifier
	Gate               *validation.Gate
	Reranker           *rerank.Reranker
	ContactDeduper     *dedup.ContactDeduper
	OrgDeduper         *dedup.OrgDeduper
	PrometheusRegistry *prometheus.Registry

	// ExcludedSuffixes are the email domain suffixes the purge endpoint
	// removes when the request names none.
	ExcludedSuffixes []string
}

// NewServer creates the HTTP server.
func NewServer(cfg config.ServiceConfig, deps Deps, log logger.Logger) *Server {
	return &Server{
		config:     cfg,
		store:      deps.Store,
		processor:  deps.Processor,
		classifier: deps.Classifier,
		contactCls: deps.ContactClassifier,
		gate:       deps.Gate,
		reranker:   deps.Reranker,
		contactDdp: deps.ContactDeduper,
		orgDdp:     deps.OrgDeduper,
		registry:   deps.PrometheusRegistry,
		logger:     log,

		excludedSuffixes: deps.ExcludedSuffixes,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if !s.config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/health", s.handleHealth)
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", s.handleClassify)
		v1.POST("/process", s.handleProcess)
		v1.POST("/contacts/validate", s.handleValidateContact)
		v1.POST("/rerank", s.handleRerank)
		v1.POST("/dedup/contacts", s.handleDedupContacts)
		v1.POST("/dedup/organizations", s.handleDedupOrganizations)
		v1.POST("/maintenance/purge-excluded", s.handlePurgeExcluded)
		v1.PUT("/settings/hurdles", s.handleSetHurdles)
		v1.GET("/stats", s.handleStats)
	}

	return router
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server starting", logger.Int("port", s.config.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)))
	}
}
