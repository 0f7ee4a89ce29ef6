package marketing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLead(t *testing.T) *Lead {
	t.Helper()
	lead, err := NewLead(6, 7, LeadProfile{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		CompanyName: "Acme",
		Email:       "ADA@acme.io",
	})
	require.NoError(t, err)
	lead.ID = 42
	return lead
}

func TestNewLead(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		lead := newTestLead(t)
		assert.Equal(t, LeadStatusNew, lead.Status)
		assert.Equal(t, LeadRatingCold, lead.Rating)
		assert.Equal(t, "ada@acme.io", lead.Email)
		assert.Equal(t, int64(7), *lead.CreatedBy)
		// email 10 + company 10 + cold 10
		assert.Equal(t, 30, lead.Score)
	})

	t.Run("requires some name", func(t *testing.T) {
		_, err := NewLead(6, 7, LeadProfile{Email: "a@b.io"})
		assert.Error(t, err)
	})

	t.Run("rejects negative estimated value", func(t *testing.T) {
		v := decimal.NewFromInt(-1)
		_, err := NewLead(6, 7, LeadProfile{CompanyName: "Acme", EstimatedValue: &v})
		assert.Error(t, err)
	})

	t.Run("rejects unknown rating", func(t *testing.T) {
		_, err := NewLead(6, 7, LeadProfile{CompanyName: "Acme", Rating: "lukewarm"})
		assert.Error(t, err)
	})
}

func TestLead_DisplayName(t *testing.T) {
	lead := newTestLead(t)
	assert.Equal(t, "Acme", lead.DisplayName())

	lead.CompanyName = "  "
	assert.Equal(t, "Ada Lovelace", lead.DisplayName())

	lead.FirstName = ""
	assert.Equal(t, "Lovelace", lead.DisplayName())
}

func TestLead_ChangeStatus(t *testing.T) {
	lead := newTestLead(t)

	require.NoError(t, lead.ChangeStatus(LeadStatusQualified))
	assert.Equal(t, LeadStatusQualified, lead.Status)
	assert.Equal(t, 50, lead.Score)
	require.Len(t, lead.GetDomainEvents(), 1)

	require.NoError(t, lead.ChangeStatus(LeadStatusQualified))
	assert.Len(t, lead.GetDomainEvents(), 1)

	err := lead.ChangeStatus(LeadStatusConverted)
	assert.ErrorIs(t, err, ErrInvalidLeadStatus)

	require.NoError(t, lead.MarkLost())
	assert.Equal(t, LeadStatusLost, lead.Status)
}

func TestLead_Convert(t *testing.T) {
	lead := newTestLead(t)
	customerID, oppID := int64(10), int64(20)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, lead.Convert(&customerID, &oppID, 7, at))
	assert.True(t, lead.IsConverted())
	assert.Equal(t, int64(10), *lead.ConvertedToCustomerID)
	assert.Equal(t, int64(20), *lead.ConvertedToOpportunityID)
	assert.Equal(t, int64(7), *lead.ConvertedByUserID)
	assert.Equal(t, at, *lead.ConvertedAt)

	events := lead.GetDomainEvents()
	require.Len(t, events, 1)
	converted := events[0].(*LeadConvertedEvent)
	assert.Equal(t, int64(42), converted.AggregateID())
	assert.Equal(t, int64(7), converted.Actor())

	t.Run("outcome is write-once", func(t *testing.T) {
		other := int64(99)
		assert.ErrorIs(t, lead.Convert(&other, nil, 8, time.Now()), ErrLeadAlreadyConverted)
		assert.Equal(t, int64(10), *lead.ConvertedToCustomerID)
	})

	t.Run("converted lead rejects mutations", func(t *testing.T) {
		uid := int64(3)
		assert.ErrorIs(t, lead.UpdateProfile(LeadProfile{CompanyName: "Other"}), ErrLeadAlreadyConverted)
		assert.ErrorIs(t, lead.Assign(&uid), ErrLeadAlreadyConverted)
		assert.ErrorIs(t, lead.ChangeStatus(LeadStatusLost), ErrLeadAlreadyConverted)
		assert.ErrorIs(t, lead.EnsureDeletable(), ErrLeadAlreadyConverted)
		_, err := lead.RecalculateScore()
		assert.ErrorIs(t, err, ErrLeadAlreadyConverted)
	})
}

func TestLead_ConvertDegenerate(t *testing.T) {
	lead := newTestLead(t)
	require.NoError(t, lead.Convert(nil, nil, 7, time.Now()))
	assert.True(t, lead.IsConverted())
	assert.Nil(t, lead.ConvertedToCustomerID)
	assert.Nil(t, lead.ConvertedToOpportunityID)
}

func TestLead_Assign(t *testing.T) {
	lead := newTestLead(t)
	uid := int64(5)
	require.NoError(t, lead.Assign(&uid))
	assert.Equal(t, int64(5), *lead.AssignedUserID)

	bad := int64(0)
	assert.Error(t, lead.Assign(&bad))

	require.NoError(t, lead.Assign(nil))
	assert.Nil(t, lead.AssignedUserID)
}

func TestCalculateScore(t *testing.T) {
	value := decimal.NewFromInt(5000)
	zero := decimal.Zero

	tests := []struct {
		name string
		lead Lead
		want int
	}{
		{"empty cold lead", Lead{LeadProfile: LeadProfile{Rating: LeadRatingCold}}, 10},
		{"phone or mobile counts once", Lead{LeadProfile: LeadProfile{Phone: "1", Mobile: "2"}}, 10},
		{"zero value does not count", Lead{LeadProfile: LeadProfile{EstimatedValue: &zero}}, 0},
		{"contacted warm", Lead{LeadProfile: LeadProfile{Rating: LeadRatingWarm}, Status: LeadStatusContacted}, 30},
		{
			"everything is capped",
			Lead{
				LeadProfile: LeadProfile{
					Email: "a@b.io", Phone: "1", CompanyName: "Acme", Industry: "Tech",
					EstimatedValue: &value, Rating: LeadRatingHot,
				},
				Status: LeadStatusQualified,
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateScore(&tt.lead))
		})
	}
}

func TestLead_RecalculateScore(t *testing.T) {
	lead := newTestLead(t)
	changed, err := lead.RecalculateScore()
	require.NoError(t, err)
	assert.False(t, changed)

	lead.Industry = "Software"
	changed, err = lead.RecalculateScore()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 35, lead.Score)
}

func TestNewLeadSource(t *testing.T) {
	source, err := NewLeadSource(6, " Web form ", "")
	require.NoError(t, err)
	assert.Equal(t, "Web form", source.Name)
	assert.True(t, source.IsActive)

	require.NoError(t, source.Deactivate())
	assert.Error(t, source.Deactivate())

	_, err = NewLeadSource(6, "", "")
	assert.Error(t, err)
}
