// Package tenant provides company (tenant) scoping for GORM queries.
//
// Every CRM table carries a tenant_id column. Repositories apply Scope to
// each tenant-bound query so that a row owned by another company can never
// be read or written through them.
//
// Usage:
//
//	db.Scopes(tenant.Scope(tenantID)).Find(&leads) // WHERE tenant_id = ?
//	db.Scopes(tenant.FromContext(ctx)).Find(&leads)
package tenant

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

// Column is the tenant column present on every tenant-bound table
const Column = "tenant_id"

// ErrTenantIDRequired is returned when a query runs without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope restricts a query to tenantID. A non-positive id poisons the
// statement with ErrTenantIDRequired instead of silently dropping the filter.
func Scope(tenantID int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID <= 0 {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

// FromContext restricts a query to the tenant stored on ctx by the
// request middleware
func FromContext(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	tenantID, _ := logger.GetTenantID(ctx)
	return Scope(tenantID)
}
