// Package search provides web search for contact validation. Results give
// the validator independent evidence about an email domain.
package search

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/retry"
)

// searchMaxAttempts bounds retries for one query. Search evidence is
// optional, so a query never deserves the AI client's longer budget.
const searchMaxAttempts = 2

// Result is one search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Provider performs a web search. Implementations must treat zero results
// as a valid outcome, not an error.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// GoogleProvider implements Provider using the Google Custom Search API.
type GoogleProvider struct {
	service  *customsearch.Service
	engineID string
	timeout  time.Duration
	logger   logger.Logger
}

// NewGoogleProvider creates a Google search provider, or nil when search
// is disabled or unconfigured. Callers handle a nil provider by skipping
// the search step.
func NewGoogleProvider(ctx context.Context, cfg config.SearchConfig, log logger.Logger) (*GoogleProvider, error) {
	if !cfg.Enabled || cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, nil
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating custom search service: %w", err)
	}

	return &GoogleProvider{
		service:  service,
		engineID: cfg.EngineID,
		timeout:  cfg.Timeout,
		logger:   log,
	}, nil
}

// Search runs the query and returns up to the first page of results.
// Each attempt gets its own timeout, and transient failures are retried
// once before the error surfaces.
func (p *GoogleProvider) Search(ctx context.Context, query string) ([]Result, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = searchMaxAttempts

	var resp *customsearch.Search
	err := retry.Do(ctx, retryCfg, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var callErr error
		resp, callErr = p.service.Cse.List().
			Context(callCtx).
			Cx(p.engineID).
			Q(query).
			Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("custom search query %q: %w", query, err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}

	p.logger.Debug("search completed",
		logger.String("query", query),
		logger.Int("results", len(results)))
	return results, nil
}

// DomainQuery builds the site-restricted query used to gather evidence
// about an email domain.
func DomainQuery(domain string) string {
	return fmt.Sprintf("site:%s", domain)
}
