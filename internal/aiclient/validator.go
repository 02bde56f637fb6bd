package aiclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/gbl-data/leadpipe/internal/jsonextract"
	"github.com/gbl-data/leadpipe/internal/logger"
)

// ValidationRequest carries everything the validator gets to look at for
// one contact.
type ValidationRequest struct {
	Email            string
	FirstName        string
	LastName         string
	JobTitle         string
	OrganizationName string
	OrganizationType string
	Website          string
	Description      string
	State            string
	SearchSnippets   []string
}

// ValidationResult is the validator's verdict. NameConfidence is nil when
// the contact has no person name to verify.
type ValidationResult struct {
	OrgConfidence  float64  `json:"org_confidence"`
	NameConfidence *float64 `json:"name_confidence"`
	Reasons        []string `json:"reasons"`
}

const validatorSystemPrompt = `You verify sales leads for a SCADA integration company. Given a contact, their claimed organization, and web search snippets about the organization's domain, judge two things independently:

1. org_confidence (0.0-1.0): does the email domain plausibly belong to the named organization, and is the organization real?
2. name_confidence (0.0-1.0 or null): does the email local part plausibly correspond to the person's name? Use null when no person name is given.

Respond with a single JSON object:
{"org_confidence": <0.0-1.0>, "name_confidence": <0.0-1.0 or null>, "reasons": ["<short reason>", ...]}`

// Validator asks the AI to judge whether a contact's email really belongs
// to the claimed person and organization.
type Validator struct {
	client *Client
	logger logger.Logger
}

// NewValidator creates an AI-backed contact validator.
func NewValidator(client *Client, log logger.Logger) *Validator {
	return &Validator{client: client, logger: log}
}

// Validate returns confidence scores for the contact. Errors from the
// underlying client pass through untouched so callers can distinguish
// unavailability from a genuine low-confidence verdict.
func (v *Validator) Validate(ctx context.Context, req ValidationRequest) (*ValidationResult, error) {
	content, err := v.client.complete(ctx, validatorSystemPrompt, buildValidationPrompt(req))
	if err != nil {
		return nil, err
	}

	var result ValidationResult
	if err := jsonextract.Object(content, &result); err != nil {
		return nil, fmt.Errorf("parsing validation response: %w", err)
	}

	result.OrgConfidence = clamp01(result.OrgConfidence)
	if result.NameConfidence != nil {
		clamped := clamp01(*result.NameConfidence)
		result.NameConfidence = &clamped
	}
	return &result, nil
}

func buildValidationPrompt(req ValidationRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Email: %s\n", req.Email)
	if req.FirstName != "" || req.LastName != "" {
		fmt.Fprintf(&sb, "Name: %s %s\n", req.FirstName, req.LastName)
	} else {
		sb.WriteString("Name: (none given)\n")
	}
	if req.JobTitle != "" {
		fmt.Fprintf(&sb, "Job title: %s\n", req.JobTitle)
	}
	fmt.Fprintf(&sb, "Organization: %s (%s)\n", req.OrganizationName, req.OrganizationType)
	if req.Website != "" {
		fmt.Fprintf(&sb, "Website: %s\n", req.Website)
	}
	if req.State != "" {
		fmt.Fprintf(&sb, "State: %s\n", req.State)
	}
	if req.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", truncate(req.Description, 1000))
	}

	if len(req.SearchSnippets) > 0 {
		sb.WriteString("\nSearch results for the email domain:\n")
		for _, snippet := range req.SearchSnippets {
			fmt.Fprintf(&sb, "- %s\n", truncate(snippet, 300))
		}
	} else {
		sb.WriteString("\nNo search results were available for the email domain.\n")
	}
	return sb.String()
}
