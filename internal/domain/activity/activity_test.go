package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	entry, err := NewEntry(6, EntityLead, 42, ActionConverted, " Lead converted ", 7)
	require.NoError(t, err)
	assert.Equal(t, "Lead converted", entry.Description)
	assert.Equal(t, int64(7), *entry.UserID)
	assert.False(t, entry.CreatedAt.IsZero())

	entry, err = NewEntry(6, EntityCustomer, 1, ActionCreated, "", 0)
	require.NoError(t, err)
	assert.Nil(t, entry.UserID)

	_, err = NewEntry(6, "invoice", 1, ActionCreated, "", 0)
	assert.Error(t, err)
	_, err = NewEntry(0, EntityLead, 1, ActionCreated, "", 0)
	assert.Error(t, err)
}
