package marketing

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LeadStatus represents the status of a lead
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusUnqualified LeadStatus = "unqualified"
)

// IsValid checks if the status is a known value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusConverted, LeadStatusLost, LeadStatusUnqualified:
		return true
	}
	return false
}

// String returns the string representation
func (s LeadStatus) String() string {
	return string(s)
}

// LeadRating expresses how promising a lead is
type LeadRating string

const (
	LeadRatingHot  LeadRating = "hot"
	LeadRatingWarm LeadRating = "warm"
	LeadRatingCold LeadRating = "cold"
)

// IsValid checks if the rating is a known value
func (r LeadRating) IsValid() bool {
	switch r {
	case LeadRatingHot, LeadRatingWarm, LeadRatingCold:
		return true
	}
	return false
}

// LeadProfile holds the editable contact data of a lead
type LeadProfile struct {
	FirstName      string
	LastName       string
	CompanyName    string
	Title          string
	Email          string
	Phone          string
	Mobile         string
	Website        string
	Address        string
	City           string
	State          string
	Country        string
	PostalCode     string
	Industry       string
	Description    string
	EstimatedValue *decimal.Decimal
	Currency       string
	Rating         LeadRating
	SourceID       *int64
}

// Lead is a prospective customer captured by marketing.
// Once converted, a lead is read-only.
type Lead struct {
	shared.TenantAggregateRoot
	LeadProfile
	Status         LeadStatus
	Score          int
	AssignedUserID *int64

	ConvertedToCustomerID    *int64
	ConvertedToOpportunityID *int64
	ConvertedAt              *time.Time
	ConvertedByUserID        *int64
}

// NewLead creates a new lead in status New
func NewLead(tenantID, createdBy int64, profile LeadProfile) (*Lead, error) {
	if tenantID <= 0 {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	profile = normalizeProfile(profile)
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	lead := &Lead{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		LeadProfile:         profile,
		Status:              LeadStatusNew,
	}
	lead.Score = CalculateScore(lead)
	return lead, nil
}

// RecordCreated raises the creation event once the lead has an id
func (l *Lead) RecordCreated() {
	l.AddDomainEvent(NewLeadCreatedEvent(l))
}

// FullName returns "first last" trimmed
func (l *Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// DisplayName returns the company name, falling back to the contact name
func (l *Lead) DisplayName() string {
	if name := strings.TrimSpace(l.CompanyName); name != "" {
		return name
	}
	return l.FullName()
}

// IsConverted returns true once the lead was converted
func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}

// CanConvert returns true if the lead may still be converted
func (l *Lead) CanConvert() bool {
	return !l.IsConverted()
}

// UpdateProfile replaces the contact data and recomputes the score
func (l *Lead) UpdateProfile(profile LeadProfile) error {
	if l.IsConverted() {
		return ErrLeadAlreadyConverted
	}
	profile = normalizeProfile(profile)
	if err := validateProfile(profile); err != nil {
		return err
	}
	l.LeadProfile = profile
	l.Score = CalculateScore(l)
	l.Touch()
	return nil
}

// Assign sets the responsible user; nil unassigns
func (l *Lead) Assign(userID *int64) error {
	if l.IsConverted() {
		return ErrLeadAlreadyConverted
	}
	if userID != nil && *userID <= 0 {
		return shared.NewDomainError("INVALID_USER", "Assigned user ID must be positive")
	}
	l.AssignedUserID = userID
	l.Touch()
	return nil
}

// ChangeStatus moves the lead to any non-converted status.
// Conversion only happens through Convert.
func (l *Lead) ChangeStatus(status LeadStatus) error {
	if l.IsConverted() {
		return ErrLeadAlreadyConverted
	}
	if !status.IsValid() || status == LeadStatusConverted {
		return ErrInvalidLeadStatus.WithMessage("Status must be one of new, contacted, qualified, unqualified, lost")
	}
	if status == l.Status {
		return nil
	}
	old := l.Status
	l.Status = status
	l.Score = CalculateScore(l)
	l.Touch()
	l.AddDomainEvent(NewLeadStatusChangedEvent(l, old))
	return nil
}

// MarkLost moves the lead to Lost
func (l *Lead) MarkLost() error {
	return l.ChangeStatus(LeadStatusLost)
}

// RecalculateScore recomputes the lead score and reports whether it changed
func (l *Lead) RecalculateScore() (bool, error) {
	if l.IsConverted() {
		return false, ErrLeadAlreadyConverted
	}
	score := CalculateScore(l)
	if score == l.Score {
		return false, nil
	}
	l.Score = score
	l.Touch()
	return true, nil
}

// EnsureDeletable rejects deletion of converted leads
func (l *Lead) EnsureDeletable() error {
	if l.IsConverted() {
		return ErrLeadAlreadyConverted
	}
	return nil
}

// Convert records the conversion outcome. Outcome fields are written once.
func (l *Lead) Convert(customerID, opportunityID *int64, byUserID int64, at time.Time) error {
	if l.IsConverted() {
		return ErrLeadAlreadyConverted
	}
	l.Status = LeadStatusConverted
	l.ConvertedToCustomerID = customerID
	l.ConvertedToOpportunityID = opportunityID
	l.ConvertedAt = &at
	l.ConvertedByUserID = &byUserID
	l.Touch()
	l.AddDomainEvent(NewLeadConvertedEvent(l))
	return nil
}

func normalizeProfile(p LeadProfile) LeadProfile {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Mobile = strings.TrimSpace(p.Mobile)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Rating == "" {
		p.Rating = LeadRatingCold
	}
	return p
}

func validateProfile(p LeadProfile) error {
	if p.FirstName == "" && p.LastName == "" && p.CompanyName == "" {
		return shared.NewDomainError("INVALID_LEAD", "Lead needs a contact name or a company name")
	}
	if !p.Rating.IsValid() {
		return shared.NewDomainError("INVALID_RATING", "Rating must be one of hot, warm, cold")
	}
	if p.EstimatedValue != nil && p.EstimatedValue.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Estimated value cannot be negative")
	}
	if p.Currency != "" && len(p.Currency) != 3 {
		return shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	return nil
}
