package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gbl-data/leadpipe/internal/database"
	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/processor"
	"github.com/gbl-data/leadpipe/internal/rerank"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": s.config.Name,
		"version": s.config.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleClassify scores one organization without persisting it. Used by
// discovery tooling to preview how a prospect would be classified.
func (s *Server) handleClassify(c *gin.Context) {
	var input domain.OrgInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	org := s.classifier.Classify(c.Request.Context(), input)
	c.JSON(http.StatusOK, org)
}

type processRequest struct {
	Records []processor.DiscoveryRecord `json:"records" binding:"required"`
}

func (s *Server) handleProcess(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Records) > s.config.BatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":       "batch too large",
			"max_records": s.config.BatchSize,
		})
		return
	}

	result, err := s.processor.ProcessBatch(c.Request.Context(), req.Records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type validateContactResponse struct {
	Contact  *domain.Contact           `json:"contact"`
	Decision domain.ValidationDecision `json:"decision"`
}

// handleValidateContact runs one contact through classification and the
// validation gate without persisting anything.
func (s *Server) handleValidateContact(c *gin.Context) {
	var input domain.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	orgType := domain.FallbackOrgType
	if input.OrganizationID != 0 {
		if org, err := s.store.Organizations().GetByID(ctx, input.OrganizationID); err == nil {
			orgType = org.OrgType
		}
	}

	contact := s.contactCls.Classify(input, orgType)
	contact.ContactConfidenceScore = input.Confidence

	decision := s.gate.Check(ctx, contact, s.gate.CurrentHurdles(ctx))
	c.JSON(http.StatusOK, validateContactResponse{Contact: contact, Decision: decision})
}

type rerankResponse struct {
	Scored  int          `json:"scored"`
	Ranking []rankedItem `json:"ranking"`
}

type rankedItem struct {
	ID                     int64   `json:"id"`
	Name                   string  `json:"name"`
	IntegrationOpportunity float64 `json:"integration_opportunity_score"`
}

// handleRerank rescores every active organization from its crawled pages
// and persists the new scores. Competitors are scored and flagged but
// excluded from the returned ranking.
func (s *Server) handleRerank(c *gin.Context) {
	ctx := c.Request.Context()

	var orgs []*domain.Organization
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := s.store.Organizations().ListActive(ctx, pageSize, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range page {
			orgs = append(orgs, &page[i])
		}
		if len(page) < pageSize {
			break
		}
	}

	pagesByOrg := make(map[int64][]domain.PageAnalysis, len(orgs))
	for _, org := range orgs {
		pages, err := s.store.Pages().ListByOrganization(ctx, org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		pagesByOrg[org.ID] = pages
	}

	scored := 0
	for _, org := range orgs {
		scores := s.reranker.Rerank(org, pagesByOrg[org.ID])
		rerank.Apply(org, scores)
		if err := s.store.Organizations().UpdateInfrastructureScores(ctx, org); err != nil {
			s.logger.Error("failed to persist reranked scores",
				logger.Int64("organization_id", org.ID),
				logger.Error(err))
			continue
		}
		scored++
	}

	ranked := s.reranker.RerankAll(orgs, pagesByOrg)
	resp := rerankResponse{Scored: scored, Ranking: make([]rankedItem, 0, len(ranked))}
	for _, r := range ranked {
		resp.Ranking = append(resp.Ranking, rankedItem{
			ID:                     r.Organization.ID,
			Name:                   r.Organization.Name,
			IntegrationOpportunity: r.Scores.IntegrationOpportunity,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDedupContacts(c *gin.Context) {
	result, err := s.contactDdp.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDedupOrganizations(c *gin.Context) {
	result, err := s.orgDdp.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type purgeRequest struct {
	Suffixes []string `json:"suffixes"`
}

// handlePurgeExcluded removes contacts whose email matches an excluded
// domain suffix. Without a body it purges the configured exclusions.
func (s *Server) handlePurgeExcluded(c *gin.Context) {
	var req purgeRequest
	_ = c.ShouldBindJSON(&req)
	if len(req.Suffixes) == 0 {
		req.Suffixes = s.excludedSuffixes
	}

	removed := make(map[string]int64, len(req.Suffixes))
	var total int64
	for _, suffix := range req.Suffixes {
		n, err := s.store.Contacts().PurgeByEmailSuffix(c.Request.Context(), suffix)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		removed[suffix] = n
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "total": total})
}

type hurdlesRequest struct {
	OrgConfidenceHurdle  *float64 `json:"org_confidence_hurdle"`
	NameConfidenceHurdle *float64 `json:"name_confidence_hurdle"`
}

func (s *Server) handleSetHurdles(c *gin.Context) {
	var req hurdlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.OrgConfidenceHurdle == nil && req.NameConfidenceHurdle == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no hurdles given"})
		return
	}

	ctx := c.Request.Context()
	if req.OrgConfidenceHurdle != nil {
		if err := s.store.Settings().SetFloat(ctx, database.SettingOrgHurdle, *req.OrgConfidenceHurdle); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if req.NameConfidenceHurdle != nil {
		if err := s.store.Settings().SetFloat(ctx, database.SettingNameHurdle, *req.NameConfidenceHurdle); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, s.gate.CurrentHurdles(ctx))
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	orgStats, err := s.store.Organizations().Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	contactCounts, err := s.store.Contacts().CountByStatus(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations":      orgStats,
		"contacts_by_status": contactCounts,
		"validation":         s.gate.Stats(),
	})
}
