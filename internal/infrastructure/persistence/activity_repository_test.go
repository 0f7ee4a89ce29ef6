package persistence

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormActivityRepository(t *testing.T) {
	repo := NewGormActivityRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	for _, action := range []activity.Action{activity.ActionCreated, activity.ActionStatusChanged, activity.ActionConverted} {
		entry, err := activity.NewEntry(6, activity.EntityLead, 42, action, string(action), 7)
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, entry))
		assert.NotZero(t, entry.ID)
	}
	other, err := activity.NewEntry(8, activity.EntityLead, 42, activity.ActionCreated, "", 9)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, other))

	t.Run("newest first within the tenant", func(t *testing.T) {
		entries, err := repo.ListForEntity(ctx, 6, activity.EntityLead, 42, 0)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, activity.ActionConverted, entries[0].Action)
		assert.Equal(t, activity.ActionCreated, entries[2].Action)
	})

	t.Run("honours the limit", func(t *testing.T) {
		entries, err := repo.ListForEntity(ctx, 6, activity.EntityLead, 42, 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("different entity type is empty", func(t *testing.T) {
		entries, err := repo.ListForEntity(ctx, 6, activity.EntityCustomer, 42, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
