package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("creates active customer", func(t *testing.T) {
		customer, err := NewCustomer(6, "  Acme  ")
		require.NoError(t, err)
		assert.Equal(t, "Acme", customer.Name)
		assert.Equal(t, int64(6), customer.TenantID)
		assert.True(t, customer.IsActive())
		assert.True(t, customer.IsNew())
		assert.Empty(t, customer.GetDomainEvents())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCustomer(6, " ")
		assert.Error(t, err)
	})

	t.Run("rejects missing tenant", func(t *testing.T) {
		_, err := NewCustomer(0, "Acme")
		assert.Error(t, err)
	})
}

func TestCustomer_RecordCreated(t *testing.T) {
	customer, err := NewCustomer(6, "Acme")
	require.NoError(t, err)
	customer.ID = 10
	customer.MarkConvertedFrom(42)
	customer.RecordCreated()

	events := customer.GetDomainEvents()
	require.Len(t, events, 1)
	created := events[0].(*CustomerCreatedEvent)
	assert.Equal(t, int64(10), created.AggregateID())
	assert.Equal(t, int64(6), created.TenantID())
	assert.Equal(t, int64(42), *created.ConvertedFromLeadID)
}

func TestCustomer_SetContact(t *testing.T) {
	customer, _ := NewCustomer(6, "Acme")

	require.NoError(t, customer.SetContact("Sales@Acme.IO", " +1 555 "))
	assert.Equal(t, "sales@acme.io", customer.Email)
	assert.Equal(t, "+1 555", customer.Phone)

	assert.Error(t, customer.SetContact("nope", ""))
	require.NoError(t, customer.SetContact("", ""))
	assert.Empty(t, customer.Email)
}

func TestCustomer_SetLocation(t *testing.T) {
	customer, _ := NewCustomer(6, "Acme")
	lat, lng := 41.0, 29.0
	bad := 120.0

	require.NoError(t, customer.SetLocation(&lat, &lng))
	assert.Equal(t, 41.0, *customer.Latitude)
	assert.Error(t, customer.SetLocation(&lat, nil))
	assert.Error(t, customer.SetLocation(&bad, &lng))
	require.NoError(t, customer.SetLocation(nil, nil))
	assert.Nil(t, customer.Latitude)
}

func TestCustomer_StatusTransitions(t *testing.T) {
	customer, _ := NewCustomer(6, "Acme")
	customer.ID = 1

	assert.Error(t, customer.Activate())
	require.NoError(t, customer.Deactivate())
	assert.False(t, customer.IsActive())
	assert.Error(t, customer.Deactivate())
	require.NoError(t, customer.Activate())

	events := customer.GetDomainEvents()
	require.Len(t, events, 2)
	changed := events[1].(*CustomerStatusChangedEvent)
	assert.Equal(t, CustomerStatusInactive, changed.OldStatus)
	assert.Equal(t, CustomerStatusActive, changed.NewStatus)
}
