package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/domain/identity"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func postCSV(t *testing.T, router *gin.Engine, content []byte, contentType string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="leads.csv"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/leads/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLeadHandler_Import(t *testing.T) {
	t.Run("imports parsed rows", func(t *testing.T) {
		svc := new(mockLeadService)
		principal := userPrincipal()
		router := newLeadRouter(principal, svc, new(mockLeadConverter))

		svc.On("Import", mock.Anything, principal, mock.MatchedBy(func(rows []*csvimport.Row) bool {
			return len(rows) == 2 &&
				rows[0].Get("first_name") == "Ada" &&
				rows[1].Get("city") == "München" &&
				rows[1].LineNumber == 3
		})).Return(&marketing.LeadImportResult{
			TotalRows:    2,
			ImportedRows: 2,
			LeadIDs:      []int64{5, 6},
		}, nil)

		csv := []byte("First Name;Last Name;City;Favourite Colour\nAda;Lovelace;London;green\nGrace;Hopper;M\xfcnchen;blue\n")
		w := postCSV(t, router, csv, "text/csv", map[string]string{
			"delimiter": ";",
			"charset":   "windows-1252",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[LeadImportResponse](t, w)
		assert.Equal(t, 2, resp.ImportedRows)
		assert.Equal(t, []int64{5, 6}, resp.LeadIDs)
		assert.Equal(t, []string{"favourite_colour"}, resp.IgnoredColumns)
		svc.AssertExpectations(t)
	})

	t.Run("file is required", func(t *testing.T) {
		svc := new(mockLeadService)
		router := newLeadRouter(userPrincipal(), svc, new(mockLeadConverter))

		w := postCSV(t, router, nil, "", nil)

		requireErrorCode(t, w, http.StatusBadRequest, "BAD_REQUEST")
		svc.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects non-CSV uploads", func(t *testing.T) {
		router := newLeadRouter(userPrincipal(), new(mockLeadService), new(mockLeadConverter))

		w := postCSV(t, router, []byte("%PDF-1.7"), "application/pdf", nil)

		requireErrorCode(t, w, http.StatusUnsupportedMediaType, errCodeInvalidImport)
	})

	t.Run("missing required columns", func(t *testing.T) {
		router := newLeadRouter(userPrincipal(), new(mockLeadService), new(mockLeadConverter))

		w := postCSV(t, router, []byte("email\nada@example.com\n"), "text/csv", nil)

		requireErrorCode(t, w, http.StatusBadRequest, errCodeInvalidImport)
		assert.Contains(t, w.Body.String(), "first_name, last_name")
	})

	t.Run("invalid encoding", func(t *testing.T) {
		router := newLeadRouter(userPrincipal(), new(mockLeadService), new(mockLeadConverter))

		w := postCSV(t, router, []byte("first_name,last_name\nJ\xfcrgen,M\xfcller\n"), "text/csv", nil)

		requireErrorCode(t, w, http.StatusBadRequest, errCodeInvalidImport)
	})

	t.Run("header without rows", func(t *testing.T) {
		router := newLeadRouter(userPrincipal(), new(mockLeadService), new(mockLeadConverter))

		w := postCSV(t, router, []byte("first_name,last_name\n"), "text/csv", nil)

		requireErrorCode(t, w, http.StatusBadRequest, errCodeInvalidImport)
	})

	t.Run("bad delimiter and charset", func(t *testing.T) {
		router := newLeadRouter(userPrincipal(), new(mockLeadService), new(mockLeadConverter))
		csv := []byte("first_name,last_name\nAda,Lovelace\n")

		w := postCSV(t, router, csv, "text/csv", map[string]string{"delimiter": ";;"})
		requireErrorCode(t, w, http.StatusBadRequest, "BAD_REQUEST")

		w = postCSV(t, router, csv, "text/csv", map[string]string{"charset": "utf-16"})
		requireErrorCode(t, w, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("requires an active company", func(t *testing.T) {
		svc := new(mockLeadService)
		principal := tenantlessPrincipal()
		router := newLeadRouter(principal, svc, new(mockLeadConverter))
		svc.On("Import", mock.Anything, principal, mock.Anything).Return(nil, identity.ErrNoActiveTenant)

		w := postCSV(t, router, []byte("first_name,last_name\nAda,Lovelace\n"), "text/csv", nil)

		requireErrorCode(t, w, http.StatusPreconditionRequired, "NO_ACTIVE_TENANT")
	})
}
