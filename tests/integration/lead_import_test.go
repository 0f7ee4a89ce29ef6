package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	marketingapp "github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *CRMTestServer) importLeads(token string, csv []byte) *APIResponse {
	s.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(s.t, err)
	_, err = part.Write(csv)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	resp := &APIResponse{Status: w.Code}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), resp), "body: %s", w.Body.String())
	return resp
}

func TestLeadImport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewCRMTestServer(t)
	owner := ts.RegisterUser("importer")
	companyID := ts.CreateCompany(owner, "Import Partners")
	other := ts.RegisterUser("bystander")
	otherCompany := ts.CreateCompany(other, "Bystander Corp")

	csv := []byte("First Name,Last Name,Email,Company Name,Estimated Value,Rating\n" +
		"Ada,Lovelace,ada@example.com,Analytical Engines,5000,hot\n" +
		"Grace,,grace@example.com,,,\n" +
		"Alan,Turing,alan@example.com,Bletchley,,cold\n")

	resp := ts.importLeads(owner.AccessToken, csv)
	require.Equal(t, http.StatusOK, resp.Status, resp.ErrorCode())
	result := Decode[handler.LeadImportResponse](t, resp)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ImportedRows)
	assert.Equal(t, 1, result.ErrorRows)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "last_name", result.Errors[0].Column)

	assert.Equal(t, int64(2), ts.DB.CountRows("leads", companyID))
	assert.Zero(t, ts.DB.CountRows("leads", otherCompany))

	require.Len(t, result.LeadIDs, 2)
	resp = ts.As(owner.AccessToken, http.MethodGet, "/leads/"+itoa(result.LeadIDs[0]), nil)
	lead := Decode[marketingapp.LeadResponse](t, resp)
	assert.Equal(t, "Ada", lead.FirstName)
	assert.Equal(t, "hot", lead.Rating)
	assert.Equal(t, "new", lead.Status)

	resp = ts.As(other.AccessToken, http.MethodGet, "/leads/"+itoa(result.LeadIDs[0]), nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
