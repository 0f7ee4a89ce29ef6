// Package testutil holds helpers shared by the CRM backend's package and
// integration tests.
package testutil

import (
	"testing"
	"time"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewSQLiteDB opens an in-memory SQLite database with every CRM table migrated.
// The pool holds a single connection so all statements, transactions
// included, see the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate schema")
	return db
}

// CountTenantRows counts the rows of table owned by tenantID.
func CountTenantRows(t *testing.T, db *gorm.DB, table string, tenantID int64) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Table(table).Where("tenant_id = ?", tenantID).Count(&n).Error)
	return n
}

// RequireEventually polls condition until it holds, failing the test at timeout.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			require.Fail(t, "Condition not met within "+timeout.String(), msgAndArgs...)
			return
		}
		time.Sleep(interval)
	}
}
