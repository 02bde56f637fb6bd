package domain

import "time"

// ContactStatus tracks a contact through the outreach funnel.
type ContactStatus string

// Contact statuses. Transitions are strictly forward-moving except that
// "responded" and "not_interested" are only reachable from "emailed".
const (
	StatusNew              ContactStatus = "new"
	StatusEmailDraft       ContactStatus = "email_draft"
	StatusEmailed          ContactStatus = "emailed"
	StatusResponded        ContactStatus = "responded"
	StatusMeetingScheduled ContactStatus = "meeting_scheduled"
	StatusNotInterested    ContactStatus = "not_interested"
	StatusInvalid          ContactStatus = "invalid"
)

// statusOrder defines the forward progression of the funnel.
var statusOrder = map[ContactStatus]int{
	StatusNew:              0,
	StatusEmailDraft:       1,
	StatusEmailed:          2,
	StatusResponded:        3,
	StatusMeetingScheduled: 4,
	StatusNotInterested:    3,
	StatusInvalid:          5,
}

// CanTransition reports whether a contact may move from its current status
// to the target status.
func (s ContactStatus) CanTransition(to ContactStatus) bool {
	if to == StatusResponded || to == StatusNotInterested {
		return s == StatusEmailed
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	target, ok := statusOrder[to]
	if !ok {
		return false
	}
	return target > from
}

// ContactInput is the raw discovery payload for a contact before validation.
type ContactInput struct {
	OrganizationID int64  `json:"organization_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	JobTitle       string `json:"job_title"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`

	// Confidence is the discovery source's own confidence in the record.
	Confidence float64 `json:"confidence"`
}

// Contact is a persisted outreach target. A contact is only valid with a
// resolvable owning organization; email is the natural deduplication key.
type Contact struct {
	ID             int64         `db:"id"              json:"id"`
	OrganizationID int64         `db:"organization_id" json:"organization_id"`
	FirstName      string        `db:"first_name"      json:"first_name"`
	LastName       string        `db:"last_name"       json:"last_name"`
	JobTitle       string        `db:"job_title"       json:"job_title"`
	Email          string        `db:"email"           json:"email"`
	Phone          string        `db:"phone"           json:"phone"`
	AssignedTo     string        `db:"assigned_to"     json:"assigned_to"`
	Status         ContactStatus `db:"status"          json:"status"`
	StatusDate     time.Time     `db:"status_date"     json:"status_date"`
	Notes          string        `db:"notes"           json:"notes"`
	DateAdded      time.Time     `db:"date_added"      json:"date_added"`
	LastUpdated    time.Time     `db:"last_updated"    json:"last_updated"`

	// ContactConfidenceScore is confidence that the contact information is
	// accurate; ContactRelevanceScore is how well the job title matches the
	// organization's target roles. Both 0.0-1.0.
	ContactConfidenceScore float64 `db:"contact_confidence_score" json:"contact_confidence_score"`
	ContactRelevanceScore  float64 `db:"contact_relevance_score"  json:"contact_relevance_score"`
	EmailValid             bool    `db:"email_valid"              json:"email_valid"`
}

// ValidationOutcome tags the result of a ValidationGate decision.
type ValidationOutcome string

const (
	// OutcomeApproved means the record passed validation and was persisted.
	OutcomeApproved ValidationOutcome = "approved"
	// OutcomeApprovedNoName means the organization passed but no person name
	// was available; downstream uses the organization-level email template.
	OutcomeApprovedNoName ValidationOutcome = "approved_no_name"
	// OutcomeRejected means the record failed validation and was not persisted.
	OutcomeRejected ValidationOutcome = "rejected"
)

// ValidationDecision is the full result of a gate run, including the
// human-readable reason sales staff see when auditing rejected leads.
type ValidationDecision struct {
	Outcome        ValidationOutcome `json:"outcome"`
	Reason         string            `json:"reason"`
	OrgConfidence  float64           `json:"org_confidence"`
	NameConfidence *float64          `json:"name_confidence,omitempty"`
}

// Approved reports whether the decision admits the record.
func (d ValidationDecision) Approved() bool {
	return d.Outcome == OutcomeApproved || d.Outcome == OutcomeApprovedNoName
}
