package aiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/gbl-data/leadpipe/internal/domain"
	"github.com/gbl-data/leadpipe/internal/jsonextract"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// Classification is the AI's opinion on an organization's category.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Subtype    string  `json:"subtype"`
	Reasoning  string  `json:"reasoning"`
}

const classifierSystemPrompt = `You classify organizations for a SCADA integration company that sells remote monitoring and control systems to end customers (never to other integrators).

Classify the organization into exactly one category: water, agriculture, healthcare, emergency, engineering, municipal, utility, transportation, oil_gas, government.

Respond with a single JSON object:
{"category": "<category>", "confidence": <0.0-1.0>, "subtype": "<short free-text subtype>", "reasoning": "<one sentence>"}`

// Classifier asks the AI to categorize an organization when keyword
// scoring is not confident enough.
type Classifier struct {
	client *Client
	logger logger.Logger
}

// NewClassifier creates an AI-backed organization classifier.
func NewClassifier(client *Client, log logger.Logger) *Classifier {
	return &Classifier{client: client, logger: log}
}

// Classify returns the AI classification for the organization text.
// Unknown categories are mapped to the fallback type with reduced
// confidence rather than rejected.
func (c *Classifier) Classify(ctx context.Context, name, description, secondaryText string) (*Classification, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Organization name: %s\n", name)
	if description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", description)
	}
	if secondaryText != "" {
		fmt.Fprintf(&sb, "Website text: %s\n", truncate(secondaryText, 2000))
	}

	content, err := c.client.complete(ctx, classifierSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := jsonextract.Object(content, &result); err != nil {
		return nil, fmt.Errorf("parsing classification response: %w", err)
	}

	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	if !domain.IsKnownOrgType(domain.OrgType(result.Category)) {
		c.logger.Warn("ai returned unknown category, using fallback",
			logger.String("category", result.Category),
			logger.String("organization", name))
		result.Category = string(domain.FallbackOrgType)
	}

	result.Confidence = clamp01(result.Confidence)
	return &result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
