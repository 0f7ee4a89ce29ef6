package marketing

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxImportErrors caps the row errors returned by one import
const maxImportErrors = 100

// LeadImportColumns are the recognized CSV columns; first_name and last_name are required
var LeadImportColumns = []string{
	"first_name", "last_name", "company_name", "title", "email", "phone", "mobile",
	"website", "address", "city", "state", "country", "postal_code", "industry",
	"description", "estimated_value", "currency", "rating", "source_id",
}

// LeadImportResult summarizes a bulk lead import
type LeadImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	LeadIDs      []int64              `json:"lead_ids"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// Import captures one lead per row in the active company. Rows are saved
// independently: invalid rows are reported and skipped, and a storage
// failure stops the import leaving earlier rows in place.
func (s *LeadService) Import(ctx context.Context, principal *identity.Principal, rows []*csvimport.Row) (*LeadImportResult, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}

	result := &LeadImportResult{TotalRows: len(rows), LeadIDs: []int64{}}
	rowErrors := csvimport.NewErrorCollection(maxImportErrors)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input, rowErr := leadInputFromRow(row)
		if rowErr != nil {
			rowErrors.Add(*rowErr)
			result.ErrorRows++
			continue
		}

		lead, err := s.Create(ctx, principal, input)
		if err != nil {
			if !addRowErrors(rowErrors, row.LineNumber, err) {
				s.logger.Error("Lead import aborted",
					zap.Int64("tenant_id", tenantID),
					zap.Int("row", row.LineNumber),
					zap.Int("imported", result.ImportedRows),
					zap.Error(err))
				return nil, err
			}
			result.ErrorRows++
			continue
		}
		result.ImportedRows++
		result.LeadIDs = append(result.LeadIDs, lead.ID)
	}

	result.Errors = rowErrors.Errors()
	result.IsTruncated = rowErrors.IsTruncated()
	result.TotalErrors = rowErrors.TotalCount()

	s.logger.Info("Leads imported",
		zap.Int64("tenant_id", tenantID),
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("failed", result.ErrorRows))
	return result, nil
}

func leadInputFromRow(row *csvimport.Row) (CreateLeadInput, *csvimport.RowError) {
	input := CreateLeadInput{LeadInput: LeadInput{
		FirstName:   row.Get("first_name"),
		LastName:    row.Get("last_name"),
		CompanyName: row.Get("company_name"),
		Title:       row.Get("title"),
		Email:       row.Get("email"),
		Phone:       row.Get("phone"),
		Mobile:      row.Get("mobile"),
		Website:     row.Get("website"),
		Address:     row.Get("address"),
		City:        row.Get("city"),
		State:       row.Get("state"),
		Country:     row.Get("country"),
		PostalCode:  row.Get("postal_code"),
		Industry:    row.Get("industry"),
		Description: row.Get("description"),
		Currency:    strings.ToUpper(row.Get("currency")),
		Rating:      strings.ToLower(row.Get("rating")),
	}}

	if raw := row.Get("estimated_value"); raw != "" {
		value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return input, &csvimport.RowError{
				Row: row.LineNumber, Column: "estimated_value",
				Code: csvimport.ErrCodeInvalidType, Message: "Must be a number",
			}
		}
		input.EstimatedValue = &value
	}

	if raw := row.Get("source_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return input, &csvimport.RowError{
				Row: row.LineNumber, Column: "source_id",
				Code: csvimport.ErrCodeInvalidType, Message: "Must be a lead source ID",
			}
		}
		input.SourceID = &id
	}
	return input, nil
}

// addRowErrors records err against line and reports whether it was a
// row-level failure. Anything else should abort the import.
func addRowErrors(rowErrors *csvimport.ErrorCollection, line int, err error) bool {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			rowErrors.Add(csvimport.RowError{Row: line, Column: f.Field, Code: csvimport.ErrCodeValidation, Message: f.Message})
		}
		return true
	}

	var de *shared.DomainError
	if errors.As(err, &de) && de.Code != "INTERNAL_ERROR" {
		rowErrors.Add(csvimport.RowError{Row: line, Code: de.Code, Message: de.Message})
		return true
	}
	return false
}
