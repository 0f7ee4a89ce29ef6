package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCustomerRepository creates a GormCustomerRepository with a mocked SQL connection
func newMockCustomerRepository(t *testing.T) (*GormCustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCustomerRepository(gormDB), mock, mockDB
}

func createTestCustomer(t *testing.T, repo *GormCustomerRepository, tenantID int64, name, email string) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer(tenantID, name)
	require.NoError(t, err)
	require.NoError(t, customer.SetContact(email, ""))
	require.NoError(t, repo.Create(context.Background(), customer))
	return customer
}

func TestNewGormCustomerRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormCustomerRepository_FindByIDForTenant_SQL(t *testing.T) {
	t.Run("filters by tenant before id", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "name", "status"}).
			AddRow(99, 6, 1, "Acme", "active")

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(int64(6), int64(99), 1).
			WillReturnRows(rows)

		customer, err := repo.FindByIDForTenant(context.Background(), 6, 99)

		require.NoError(t, err)
		assert.Equal(t, int64(99), customer.ID)
		assert.Equal(t, int64(6), customer.TenantID)
		assert.Equal(t, "Acme", customer.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a missing tenant without querying", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByIDForTenant(context.Background(), 0, 99)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	repo := NewGormCustomerRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	customer := createTestCustomer(t, repo, 6, "Acme", "sales@acme.test")

	found, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), found.TenantID)
	assert.Equal(t, "sales@acme.test", found.Email)

	_, err = repo.FindByID(ctx, 12345)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomerRepository_FindAllForTenant(t *testing.T) {
	repo := NewGormCustomerRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	createTestCustomer(t, repo, 6, "Acme", "sales@acme.test")
	globex := createTestCustomer(t, repo, 6, "Globex", "info@globex.test")
	createTestCustomer(t, repo, 8, "Initech", "")

	require.NoError(t, globex.Deactivate())
	require.NoError(t, repo.SaveWithLock(ctx, globex))

	t.Run("scopes to tenant", func(t *testing.T) {
		customers, total, err := repo.FindAllForTenant(ctx, 6, partner.CustomerFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, customers, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		customers, total, err := repo.FindAllForTenant(ctx, 6, partner.CustomerFilter{Status: partner.CustomerStatusActive})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, customers, 1)
		assert.Equal(t, "Acme", customers[0].Name)
	})

	t.Run("searches name and email", func(t *testing.T) {
		customers, _, err := repo.FindAllForTenant(ctx, 6, partner.CustomerFilter{Filter: shared.Filter{Search: "GLOBEX.TEST"}})
		require.NoError(t, err)
		require.Len(t, customers, 1)
		assert.Equal(t, "Globex", customers[0].Name)
	})
}

func TestGormCustomerRepository_SaveWithLock(t *testing.T) {
	repo := NewGormCustomerRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	customer := createTestCustomer(t, repo, 6, "Acme", "")

	stale, err := repo.FindByIDForTenant(ctx, 6, customer.ID)
	require.NoError(t, err)

	require.NoError(t, customer.Rename("Acme Corp"))
	require.NoError(t, repo.SaveWithLock(ctx, customer))
	assert.Equal(t, 2, customer.Version)

	require.NoError(t, stale.Rename("Acme Inc"))
	err = repo.SaveWithLock(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	found, err := repo.FindByIDForTenant(ctx, 6, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", found.Name)
}

func TestGormCustomerRepository_DeleteForTenant(t *testing.T) {
	repo := NewGormCustomerRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	customer := createTestCustomer(t, repo, 6, "Acme", "")

	err := repo.DeleteForTenant(ctx, 8, customer.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.DeleteForTenant(ctx, 6, customer.ID))
	_, err = repo.FindByIDForTenant(ctx, 6, customer.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomerRepository_InterfaceCompliance(t *testing.T) {
	var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
}
