package marketing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func parseRows(t *testing.T, csv string) []*csvimport.Row {
	t.Helper()
	parser, err := csvimport.NewParser(strings.NewReader(csv))
	require.NoError(t, err)
	rows, err := parser.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestLeadService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("imports valid rows and reports the rest", func(t *testing.T) {
		svc, repo, _, publisher := newTestLeadService()
		repo.On("Create", ctx, mock.AnythingOfType("*marketing.Lead")).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		rows := parseRows(t, "First Name,Last Name,Email,Estimated Value,Currency,Rating\n"+
			"Ada,Lovelace,ada@example.com,\"12,500.00\",eur,HOT\n"+
			"Grace,,grace@example.com,,,\n"+
			"Alan,Turing,alan@example.com,lots,,\n"+
			"Edsger,Dijkstra,,,,\n")

		result, err := svc.Import(ctx, testPrincipal(), rows)

		require.NoError(t, err)
		assert.Equal(t, 4, result.TotalRows)
		assert.Equal(t, 2, result.ImportedRows)
		assert.Equal(t, 2, result.ErrorRows)
		assert.Len(t, result.LeadIDs, 2)
		require.Len(t, result.Errors, 2)

		assert.Equal(t, 3, result.Errors[0].Row)
		assert.Equal(t, "last_name", result.Errors[0].Column)
		assert.Equal(t, csvimport.ErrCodeValidation, result.Errors[0].Code)

		assert.Equal(t, 4, result.Errors[1].Row)
		assert.Equal(t, "estimated_value", result.Errors[1].Column)
		assert.Equal(t, csvimport.ErrCodeInvalidType, result.Errors[1].Code)

		repo.AssertNumberOfCalls(t, "Create", 2)
		created := repo.Calls[0].Arguments.Get(1).(*marketing.Lead)
		assert.Equal(t, int64(6), created.TenantID)
		assert.Equal(t, "EUR", created.Currency)
		assert.Equal(t, marketing.LeadRating("hot"), created.Rating)
		require.NotNil(t, created.EstimatedValue)
		assert.Equal(t, "12500", created.EstimatedValue.String())
	})

	t.Run("foreign lead source is a row error", func(t *testing.T) {
		svc, repo, guard, publisher := newTestLeadService()
		guard.On("Require", ctx, access.KindLeadSource, int64(99), int64(6)).Return(shared.ErrForbidden)
		guard.On("Require", ctx, access.KindLeadSource, int64(3), int64(6)).Return(nil)
		repo.On("Create", ctx, mock.AnythingOfType("*marketing.Lead")).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		rows := parseRows(t, "first_name,last_name,source_id\n"+
			"Ada,Lovelace,99\n"+
			"Grace,Hopper,3\n"+
			"Alan,Turing,web\n")

		result, err := svc.Import(ctx, testPrincipal(), rows)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedRows)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "FORBIDDEN", result.Errors[0].Code)
		assert.Equal(t, "source_id", result.Errors[1].Column)
	})

	t.Run("storage failure aborts", func(t *testing.T) {
		svc, repo, _, publisher := newTestLeadService()
		repo.On("Create", ctx, mock.AnythingOfType("*marketing.Lead")).Return(errors.New("connection reset")).Once()
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		rows := parseRows(t, "first_name,last_name\nAda,Lovelace\nGrace,Hopper\n")

		result, err := svc.Import(ctx, testPrincipal(), rows)

		assert.Error(t, err)
		assert.Nil(t, result)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("error list is capped", func(t *testing.T) {
		svc, repo, _, _ := newTestLeadService()

		var b strings.Builder
		b.WriteString("first_name,last_name\n")
		for range maxImportErrors + 5 {
			b.WriteString("OnlyFirst,\n")
		}

		result, err := svc.Import(ctx, testPrincipal(), parseRows(t, b.String()))

		require.NoError(t, err)
		assert.Equal(t, maxImportErrors+5, result.ErrorRows)
		assert.Len(t, result.Errors, maxImportErrors)
		assert.True(t, result.IsTruncated)
		assert.Equal(t, maxImportErrors+5, result.TotalErrors)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("requires an active company", func(t *testing.T) {
		svc, _, _, _ := newTestLeadService()
		principal := identity.NewUserPrincipal(7, nil, nil)

		_, err := svc.Import(ctx, &principal, parseRows(t, "first_name,last_name\nAda,Lovelace\n"))

		assert.ErrorIs(t, err, identity.ErrNoActiveTenant)
	})

	t.Run("stops when the request is cancelled", func(t *testing.T) {
		svc, repo, _, _ := newTestLeadService()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Import(cancelled, testPrincipal(), parseRows(t, "first_name,last_name\nAda,Lovelace\n"))

		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
