package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/crm/backend/internal/application/marketing"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

const (
	maxImportFileSize    = 10 << 20
	errCodeInvalidImport = "INVALID_IMPORT_FILE"
)

var importContentTypes = []string{
	"", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel",
}

// LeadImportResponse is the outcome of a lead CSV import
type LeadImportResponse struct {
	marketing.LeadImportResult
	IgnoredColumns []string `json:"ignored_columns,omitempty"`
}

// Import godoc
// @ID           importLeads
// @Summary      Import leads from CSV
// @Description  Create one lead per row of a CSV file in the active company. The header names the columns
// @Description  (first_name and last_name are required). Invalid rows are skipped and reported by line.
// @Tags         leads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData file   true  "CSV file"
// @Param        delimiter formData string false "Field delimiter, default comma"
// @Param        charset   formData string false "File charset: utf-8 (default), windows-1252, iso-8859-1 or iso-8859-15"
// @Success      200 {object} APIResponse[LeadImportResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      415 {object} ErrorResponse
// @Failure      428 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/import [post]
func (h *LeadHandler) Import(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 10MB")
		return
	}
	if !slices.Contains(importContentTypes, header.Header.Get("Content-Type")) {
		h.Error(c, http.StatusUnsupportedMediaType, errCodeInvalidImport, "file must be a CSV file")
		return
	}

	opts := []csvimport.ParserOption{}
	if d := c.PostForm("delimiter"); d != "" {
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
			h.BadRequest(c, "delimiter must be a single character")
			return
		}
		opts = append(opts, csvimport.WithDelimiter(r))
	}
	if cs := c.PostForm("charset"); cs != "" {
		if !csvimport.SupportedCharset(cs) {
			h.BadRequest(c, "unsupported charset "+cs)
			return
		}
		opts = append(opts, csvimport.WithCharset(cs))
	}

	parser, err := csvimport.NewParser(file, opts...)
	if err != nil {
		h.importFileError(c, err)
		return
	}
	var missing []string
	for _, col := range []string{"first_name", "last_name"} {
		if !parser.HasHeader(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		h.Error(c, http.StatusBadRequest, errCodeInvalidImport, "missing required columns: "+strings.Join(missing, ", "))
		return
	}
	rows, err := parser.ReadAll()
	if err != nil {
		h.importFileError(c, err)
		return
	}

	result, err := h.leadService.Import(c.Request.Context(), principal, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LeadImportResponse{
		LeadImportResult: *result,
		IgnoredColumns:   ignoredColumns(parser.Headers()),
	})
}

// importFileError answers 400 for unreadable files; malformed CSV and
// file-level errors such as ErrNoDataRows carry their message to the client
func (h *LeadHandler) importFileError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum allowed size")
		return
	}
	h.Error(c, http.StatusBadRequest, errCodeInvalidImport, err.Error())
}

func ignoredColumns(headers []string) []string {
	var ignored []string
	for _, h := range headers {
		if h != "" && !slices.Contains(marketing.LeadImportColumns, h) {
			ignored = append(ignored, h)
		}
	}
	return ignored
}
